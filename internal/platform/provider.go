package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	config "github.com/varunm24/socialflow/configs"
	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/pkg/utils"
)

// Provider turns stored account rows into working Credentials, refreshing
// OAuth tokens that are about to expire and writing the refreshed material
// back through the repository.
type Provider struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewProvider(cfg config.Config, sa repository.SocialAccountRepository) *Provider {
	return &Provider{cfg: cfg, sa: sa}
}

func (p *Provider) Resolve(ctx context.Context, accountID int64) (Credentials, error) {
	account, err := p.sa.GetByID(ctx, accountID)
	if err != nil {
		return Credentials{}, err
	}
	if account == nil {
		return Credentials{}, fmt.Errorf("account %d: %w", accountID, ErrMissingCredentials)
	}

	switch account.Platform {
	case models.PlatformInstagram:
		return p.instagramCredentials(account)
	case models.PlatformYoutube:
		return p.youtubeCredentials(ctx, account)
	default:
		return Credentials{}, fmt.Errorf("platform %q: %w", account.Platform, ErrMissingCredentials)
	}
}

func (p *Provider) instagramCredentials(account *models.SocialAccount) (Credentials, error) {
	if !account.Password.Valid || account.Password.String == "" {
		return Credentials{}, fmt.Errorf("instagram account %d has no password: %w", account.ID, ErrMissingCredentials)
	}

	password, err := utils.Decrypt(account.Password.String, []byte(p.cfg.SecretKey))
	if err != nil {
		return Credentials{}, fmt.Errorf("decrypt instagram password: %w", err)
	}

	return Credentials{
		Kind:        CredentialSession,
		AccountID:   account.ID,
		Username:    account.AccountUsername,
		Password:    password,
		SessionBlob: account.SessionBlob.String,
	}, nil
}

func (p *Provider) youtubeCredentials(ctx context.Context, account *models.SocialAccount) (Credentials, error) {
	if account.AccessToken == "" {
		return Credentials{}, fmt.Errorf("youtube account %d has no token: %w", account.ID, ErrMissingCredentials)
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(p.cfg.SecretKey))
	if err != nil {
		return Credentials{}, fmt.Errorf("decrypt youtube token: %w", err)
	}

	if time.Until(account.TokenExpiresAt) > time.Minute {
		return Credentials{
			Kind:        CredentialOAuth,
			AccountID:   account.ID,
			AccessToken: accessToken,
		}, nil
	}

	refreshed, err := p.refreshYoutubeToken(ctx, account)
	if err != nil {
		slog.Warn("youtube token refresh failed, using stored token", "account_id", account.ID, "error", err)
		return Credentials{
			Kind:        CredentialOAuth,
			AccountID:   account.ID,
			AccessToken: accessToken,
		}, nil
	}

	return Credentials{
		Kind:        CredentialOAuth,
		AccountID:   account.ID,
		AccessToken: refreshed,
	}, nil
}

// Refresh renews the account's token material ahead of expiry. Session
// platforms have nothing to renew on a schedule.
func (p *Provider) Refresh(ctx context.Context, account *models.SocialAccount) error {
	switch account.Platform {
	case models.PlatformYoutube:
		_, err := p.refreshYoutubeToken(ctx, account)
		return err
	default:
		return nil
	}
}

func (p *Provider) refreshYoutubeToken(ctx context.Context, account *models.SocialAccount) (string, error) {
	conf := &oauth2.Config{
		ClientID:     p.cfg.GoogleClientID,
		ClientSecret: p.cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
		Endpoint:     google.Endpoint,
	}

	refreshToken, err := utils.Decrypt(account.RefreshToken, []byte(p.cfg.SecretKey))
	if err != nil {
		return "", err
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		return "", err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(p.cfg.SecretKey))
	if err != nil {
		return "", err
	}

	update := models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		TokenExpiresAt: token.Expiry,
	}
	if err := p.sa.SetToken(ctx, account.UserID, account.AccessToken, &update); err != nil {
		slog.Info(err.Error())
	}

	return token.AccessToken, nil
}
