package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	config "github.com/varunm24/socialflow/configs"
	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/pkg/utils"
)

const googleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, tokenString string) string
	ConnectInstagram(ctx context.Context, userID int64, username, password string) error
	YoutubeCallback(ctx context.Context, code string, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg *config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg *config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, tokenString string) string {
	switch platform {
	case models.PlatformYoutube:
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/youtube.upload")
		params.Add("state", tokenString)
		params.Add("access_type", "offline")
		params.Add("prompt", "consent")

		return fmt.Sprintf("%s?%s", googleAuthURL, params.Encode())

	default:
		return ""
	}
}

// ConnectInstagram stores a session-based Instagram account. Credentials
// are verified lazily on first publish; only the encrypted password is
// persisted here.
func (s *platformService) ConnectInstagram(ctx context.Context, userID int64, username, password string) error {
	if username == "" || password == "" {
		err := errors.New("username and password are required")
		slog.Info(err.Error())
		return err
	}

	encryptedPassword, err := utils.Encrypt([]byte(password), []byte(s.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("error encrypting password")
	}

	account := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformInstagram,
		AccountID:       username,
		AccountName:     username,
		AccountUsername: username,
		Password:        toNullString(encryptedPassword),
		AccountStatus:   "active",
	}

	if _, err := s.sa.Create(ctx, nil, account); err != nil {
		return fmt.Errorf("error saving social account")
	}

	return nil
}

func (s *platformService) YoutubeCallback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	oauth2Config := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/youtube.upload",
		},
		Endpoint: google.Endpoint,
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	client := oauth2Config.Client(ctx, token)
	userInfo, err := getGoogleUserInfo(client)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("error encrypting token")
	}

	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return fmt.Errorf("error encrypting token")
		}
	}

	account := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformYoutube,
		AccountID:       userInfo.ID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Email,
		ProfilePicture:  userInfo.Picture,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  token.Expiry,
		AccountStatus:   "active",
	}

	if _, err := s.sa.Create(ctx, nil, account); err != nil {
		return fmt.Errorf("error saving social account")
	}

	return nil
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	if userID == 0 {
		err := errors.New("user id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListInfoByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts")
	}

	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("user id is not valid")
		slog.Info(err.Error())
		return err
	}

	if accountID == 0 {
		err = errors.New("account id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	accountInfo, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("unable to get social account info")
	}

	// OAuth grants are revoked upstream; session accounts have nothing to
	// revoke.
	if accountInfo.Platform == models.PlatformYoutube && accountInfo.AccessToken != "" {
		decryptedAccessToken, err := utils.Decrypt(accountInfo.AccessToken, []byte(s.cfg.SecretKey))
		if err == nil {
			if err := revokeGoogleAccess(decryptedAccessToken); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	if err = s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("error removing account info")
	}

	return nil
}

func revokeGoogleAccess(accessToken string) error {
	revokeURL := "https://oauth2.googleapis.com/revoke"
	payload := []byte("token=" + accessToken)

	req, err := http.NewRequest(http.MethodPost, revokeURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
