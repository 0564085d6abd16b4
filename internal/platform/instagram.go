package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/varunm24/socialflow/internal/repository"
)

const instagramBaseURL = "https://i.instagram.com/api/v1"

// InstagramPublisher drives Instagram through its session-based client flow:
// reuse the serialized session when possible, re-login with the password
// when it has gone stale, and persist the refreshed session afterwards.
type InstagramPublisher struct {
	sa     repository.SocialAccountRepository
	client *http.Client
}

func NewInstagramPublisher(sa repository.SocialAccountRepository) *InstagramPublisher {
	return &InstagramPublisher{
		sa:     sa,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type instagramSession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	CSRFToken string `json:"csrf_token"`
}

func (ig *InstagramPublisher) Publish(ctx context.Context, creds Credentials, req PublishRequest) error {
	if creds.Kind != CredentialSession {
		return fmt.Errorf("instagram publisher needs session credentials: %w", ErrMissingCredentials)
	}

	session, err := ig.login(ctx, creds, false)
	if err != nil {
		session, err = ig.login(ctx, creds, true)
		if err != nil {
			return fmt.Errorf("instagram login: %w", err)
		}
	}

	uploadID, err := ig.uploadMedia(ctx, session, req)
	if err != nil {
		return fmt.Errorf("instagram upload: %w", err)
	}

	if err := ig.configureMedia(ctx, session, uploadID, req); err != nil {
		return err
	}

	slog.Info("instagram post published", "account_id", creds.AccountID, "post_type", req.PostType)
	return nil
}

// login restores the stored session, or performs a full username/password
// login when force is set or no session exists. New sessions are persisted
// so later executions skip the login round-trip.
func (ig *InstagramPublisher) login(ctx context.Context, creds Credentials, force bool) (*instagramSession, error) {
	if !force && creds.SessionBlob != "" {
		var session instagramSession
		if err := json.Unmarshal([]byte(creds.SessionBlob), &session); err == nil && session.SessionID != "" {
			if ig.sessionValid(ctx, &session) {
				return &session, nil
			}
		}
	}

	data := url.Values{}
	data.Set("username", creds.Username)
	data.Set("password", creds.Password)

	body, err := ig.postForm(ctx, nil, "/accounts/login/", data)
	if err != nil {
		return nil, err
	}

	var result struct {
		LoggedInUser struct {
			PK string `json:"pk_id"`
		} `json:"logged_in_user"`
		SessionID string `json:"session_id"`
		CSRFToken string `json:"csrf_token"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if result.Status != "ok" || result.SessionID == "" {
		return nil, fmt.Errorf("login rejected for %s", creds.Username)
	}

	session := &instagramSession{
		SessionID: result.SessionID,
		UserID:    result.LoggedInUser.PK,
		CSRFToken: result.CSRFToken,
	}

	blob, err := json.Marshal(session)
	if err == nil {
		if err := ig.sa.SetSessionBlob(ctx, creds.AccountID, string(blob)); err != nil {
			slog.Info(err.Error())
		}
	}

	return session, nil
}

func (ig *InstagramPublisher) sessionValid(ctx context.Context, session *instagramSession) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instagramBaseURL+"/accounts/current_user/", nil)
	if err != nil {
		return false
	}
	ig.setSessionHeaders(req, session)

	resp, err := ig.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (ig *InstagramPublisher) uploadMedia(ctx context.Context, session *instagramSession, pub PublishRequest) (string, error) {
	media, err := ig.downloadMedia(ctx, pub.MediaURL)
	if err != nil {
		return "", err
	}

	uploadID := fmt.Sprintf("%d", time.Now().UnixMilli())
	endpoint := "/rupload_igphoto/" + uploadID
	if pub.PostType == "reel" || strings.HasSuffix(strings.ToLower(pub.MediaURL), ".mp4") {
		endpoint = "/rupload_igvideo/" + uploadID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, instagramBaseURL+endpoint, bytes.NewReader(media))
	if err != nil {
		return "", err
	}
	ig.setSessionHeaders(req, session)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := ig.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return uploadID, nil
}

// configureMedia attaches the caption and options and makes the uploaded
// media visible. The client library's known quirk lives here: the configure
// response sometimes fails validation even though the media already went
// live, which surfaces as ErrMediaValidation and is reclassified upstream.
func (ig *InstagramPublisher) configureMedia(ctx context.Context, session *instagramSession, uploadID string, pub PublishRequest) error {
	endpoint := "/media/configure/"
	if pub.PostType == "reel" {
		endpoint = "/media/configure_to_clips/"
	} else if pub.PostType == "story" {
		endpoint = "/media/configure_to_story/"
	}

	data := url.Values{}
	data.Set("upload_id", uploadID)
	data.Set("caption", pub.Caption)
	if pub.DisableComments {
		data.Set("disable_comments", "1")
	}
	if pub.PostType == "reel" && pub.ShareToFeed {
		data.Set("clips_share_preview_to_feed", "1")
	}

	body, err := ig.postForm(ctx, session, endpoint, data)
	if err != nil {
		return err
	}

	var result struct {
		Media struct {
			PK   json.Number `json:"pk"`
			Code string      `json:"code"`
		} `json:"media"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrMediaValidation, err)
	}
	if result.Status == "ok" && result.Media.Code == "" {
		// Upload landed but the response came back without the media payload.
		return fmt.Errorf("%w: configure response missing media", ErrMediaValidation)
	}
	if result.Status != "ok" {
		return fmt.Errorf("configure failed with status %q", result.Status)
	}

	return nil
}

func (ig *InstagramPublisher) postForm(ctx context.Context, session *instagramSession, endpoint string, data url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, instagramBaseURL+endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != nil {
		ig.setSessionHeaders(req, session)
	}

	resp, err := ig.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return body, nil
}

func (ig *InstagramPublisher) setSessionHeaders(req *http.Request, session *instagramSession) {
	req.Header.Set("User-Agent", "Instagram 269.0.0.18.75 Android")
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: session.SessionID})
	if session.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", session.CSRFToken)
	}
}

func (ig *InstagramPublisher) downloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ig.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
