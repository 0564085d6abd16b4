package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YoutubePublisher uploads post media as a YouTube video through the
// official Data API.
type YoutubePublisher struct{}

func NewYoutubePublisher() *YoutubePublisher {
	return &YoutubePublisher{}
}

func (yt *YoutubePublisher) Publish(ctx context.Context, creds Credentials, req PublishRequest) error {
	if creds.Kind != CredentialOAuth || creds.AccessToken == "" {
		return fmt.Errorf("youtube publisher needs an oauth token: %w", ErrMissingCredentials)
	}

	token := &oauth2.Token{AccessToken: creds.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("error creating YouTube service: %w", err)
	}

	tempFile, err := downloadToTempFile(ctx, req.MediaURL)
	if err != nil {
		return err
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		return fmt.Errorf("error opening video file: %w", err)
	}
	defer file.Close()

	privacyStatus := req.PrivacyStatus
	if privacyStatus == "" {
		privacyStatus = "private"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Caption,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacyStatus,
		},
	}
	if req.Tags != "" {
		video.Snippet.Tags = splitTags(req.Tags)
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error uploading video: %w", err)
	}

	slog.Info("youtube video uploaded", "account_id", creds.AccountID, "video_id", response.Id)
	return nil
}

func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func downloadToTempFile(ctx context.Context, mediaURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading video: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	if _, err := io.Copy(tempFile, response.Body); err != nil {
		return "", fmt.Errorf("error saving video to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}
