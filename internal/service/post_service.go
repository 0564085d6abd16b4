package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/internal/transfer"
)

// Enqueuer is the producer side of the task queue. Satisfied by
// queue.Client.
type Enqueuer interface {
	Submit(postID int64) error
	SubmitAt(postID int64, at time.Time) error
}

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, file *multipart.FileHeader) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Cancel(ctx context.Context, userID, postID int64) error
	Repost(ctx context.Context, userID, postID int64) error
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db    *sql.DB
	pr    repository.PostRepository
	pa    repository.PostAccountRepository
	ac    repository.SocialAccountRepository
	ma    repository.MediaAssetRepository
	r2    *R2Service
	queue Enqueuer
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pa repository.PostAccountRepository,
	ac repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	r2 *R2Service,
	queue Enqueuer) PostService {
	return &postService{
		db:    db,
		pr:    pr,
		pa:    pa,
		ac:    ac,
		ma:    ma,
		r2:    r2,
		queue: queue,
	}
}

// CreatePost uploads the media, persists the post with its target accounts
// in one transaction, and either leaves it pending for the scheduler or
// submits it for immediate execution.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, file *multipart.FileHeader) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if len(pc.AccountIDs) == 0 {
		err := errors.New("no social accounts selected")
		slog.Info(err.Error())
		return 0, err
	}

	mediaURL := pc.MediaURL
	if file != nil {
		url, err := s.uploadMedia(ctx, userID, file)
		if err != nil {
			return 0, err
		}
		mediaURL = url
	}
	if mediaURL == "" {
		err := errors.New("no media provided for the post")
		slog.Info(err.Error())
		return 0, err
	}

	status := models.PostStatusQueued
	var scheduledTime sql.NullTime
	if pc.ScheduledTime != nil {
		if pc.ScheduledTime.Before(time.Now()) {
			err := errors.New("scheduled time is in the past")
			slog.Info(err.Error())
			return 0, err
		}
		scheduledTime = sql.NullTime{Time: *pc.ScheduledTime, Valid: true}
		status = models.PostStatusPending
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:          userID,
		MediaURL:        mediaURL,
		Title:           pc.Title,
		Description:     pc.Description,
		Hashtags:        pc.Hashtags,
		Tags:            pc.Tags,
		PostType:        pc.PostType,
		PrivacyStatus:   pc.PrivacyStatus,
		DisableComments: pc.DisableComments,
		ShareToFeed:     pc.ShareToFeed,
		ScheduledTime:   scheduledTime,
		Status:          status,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.saveTargetAccounts(ctx, tx, userID, postID, pc.AccountIDs); err != nil {
		return 0, fmt.Errorf("error processing selected accounts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Scheduled posts stay pending; the polling loop picks them up when
	// their time arrives. Immediate posts go straight to the queue.
	if status == models.PostStatusQueued {
		if err := s.queue.Submit(postID); err != nil {
			slog.Error("failed to submit immediate post", "post_id", postID, "error", err)
		}
	}

	return postID, nil
}

func (s *postService) saveTargetAccounts(ctx context.Context, tx *sql.Tx, userID, postID int64, accountIDs []int64) error {
	for _, accountID := range accountIDs {
		exists, err := s.ac.CheckByUserID(ctx, accountID, userID)
		if err != nil {
			return fmt.Errorf("error checking social account %d: %w", accountID, err)
		}
		if !exists {
			return fmt.Errorf("social account %d does not exist", accountID)
		}

		pa := models.PostAccount{
			PostID:    postID,
			AccountID: accountID,
		}
		if err := s.pa.Create(ctx, tx, &pa); err != nil {
			return fmt.Errorf("error saving selected account %d: %w", accountID, err)
		}
	}
	return nil
}

func (s *postService) uploadMedia(ctx context.Context, userID int64, file *multipart.FileHeader) (string, error) {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	fileContent, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	key = fmt.Sprintf("%s.%s", key, fileType.Extension)

	if err := s.r2.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.r2.PublicURL(key),
	}
	if _, err := s.ma.Create(ctx, nil, &ma); err != nil {
		return "", err
	}

	return ma.FileURL, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	var err error

	if userID == 0 {
		err = errors.New("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	if postID == 0 {
		err = errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}
	return posts, nil
}

// Cancel withdraws a pending post. Anything past pending is already owned
// by the pipeline and can no longer be cancelled.
func (s *postService) Cancel(ctx context.Context, userID, postID int64) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	cancelled, err := s.pr.Cancel(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		err = errors.New("post can no longer be cancelled")
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Repost resets a failed post to pending and submits it again.
func (s *postService) Repost(ctx context.Context, userID, postID int64) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	reset, err := s.pr.ResetForRepost(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !reset {
		err = errors.New("only failed posts can be reposted")
		slog.Info(err.Error())
		return err
	}

	queued, err := s.pr.UpdateStatusIf(ctx, postID, models.PostStatusPending, models.PostStatusQueued)
	if err != nil {
		return err
	}
	if queued {
		if err := s.queue.Submit(postID); err != nil {
			slog.Error("failed to submit repost", "post_id", postID, "error", err)
			return err
		}
	}
	return nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("user is not valid")
		slog.Info(err.Error())
		return err
	}

	if postID == 0 {
		err = errors.New("post_id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err = s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}

	return nil
}
