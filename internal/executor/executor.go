package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/platform"
	"github.com/varunm24/socialflow/internal/service"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Second
)

// PostStore is the slice of the post repository the executor needs.
type PostStore interface {
	UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error
}

// TargetLister resolves the accounts a post fans out to.
type TargetLister interface {
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostAccount, error)
}

// AccountStore loads the social accounts behind the target mappings.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
}

// UsageLedger consumes one quota unit per platform per post, or reports why
// it cannot.
type UsageLedger interface {
	CheckAndConsume(ctx context.Context, userID int64, platformName, action string) error
}

// Locker serializes all work against one external account. Acquire returns
// the release function for the held lock.
type Locker interface {
	Acquire(ctx context.Context, accountID int64) (func(context.Context), error)
}

// Executor delivers one post across every account it targets and reduces
// the per-account results to a single terminal status.
type Executor struct {
	posts      PostStore
	targets    TargetLister
	accounts   AccountStore
	usage      UsageLedger
	locks      Locker
	creds      platform.CredentialProvider
	publishers map[string]platform.Publisher

	maxAttempts int
	retryDelay  time.Duration
}

func New(
	posts PostStore,
	targets TargetLister,
	accounts AccountStore,
	usage UsageLedger,
	locks Locker,
	creds platform.CredentialProvider,
	publishers map[string]platform.Publisher) *Executor {
	return &Executor{
		posts:       posts,
		targets:     targets,
		accounts:    accounts,
		usage:       usage,
		locks:       locks,
		creds:       creds,
		publishers:  publishers,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

type platformGroup struct {
	name     string
	accounts []*models.SocialAccount
}

// Execute runs one delivery attempt for the post. Account-level failures are
// swallowed and logged; an error return means something structural went
// wrong and the caller's task-level retry policy applies.
func (e *Executor) Execute(ctx context.Context, post *models.Post) error {
	if post == nil || post.ID == 0 {
		return errors.New("post is missing an id")
	}
	if post.UserID == 0 {
		e.setStatus(ctx, post.ID, models.PostStatusFailed, "post has no user")
		return fmt.Errorf("post %d has no user", post.ID)
	}

	slog.Info("post execution started", "post_id", post.ID)

	anySuccess, err := e.run(ctx, post)
	if err != nil {
		e.setStatus(ctx, post.ID, models.PostStatusFailed, err.Error())
		slog.Error("post execution aborted", "post_id", post.ID, "error", err)
		return err
	}

	if anySuccess {
		e.setStatus(ctx, post.ID, models.PostStatusPosted, "")
		slog.Info("post execution finished", "post_id", post.ID, "status", models.PostStatusPosted)
	} else {
		e.setStatus(ctx, post.ID, models.PostStatusFailed, "all accounts failed")
		slog.Error("post execution finished, all accounts failed", "post_id", post.ID)
	}

	return nil
}

func (e *Executor) run(ctx context.Context, post *models.Post) (bool, error) {
	if err := e.posts.UpdateStatus(ctx, post.ID, models.PostStatusProcessing, ""); err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}

	groups, err := e.resolveTargets(ctx, post.ID)
	if err != nil {
		return false, err
	}

	caption := BuildCaption(post.Title, post.Description, post.Hashtags)

	anySuccess := false
	for _, group := range groups {
		publisher, ok := e.publishers[group.name]
		if !ok {
			slog.Warn("unsupported platform, skipping", "post_id", post.ID, "platform", group.name)
			continue
		}

		// One quota unit covers the whole platform group, however many
		// accounts it contains.
		if err := e.usage.CheckAndConsume(ctx, post.UserID, group.name, models.UsageActionPost); err != nil {
			if errors.Is(err, service.ErrNoActiveSubscription) || errors.Is(err, service.ErrDailyLimitReached) {
				slog.Error("platform blocked by subscription",
					"post_id", post.ID, "platform", group.name, "error", err)
				continue
			}
			return anySuccess, fmt.Errorf("usage check for %s: %w", group.name, err)
		}

		for _, account := range group.accounts {
			slog.Info("account delivery started",
				"post_id", post.ID, "account_id", account.ID, "platform", group.name)

			if err := e.publishToAccount(ctx, post, caption, account, publisher); err != nil {
				slog.Error("account delivery failed",
					"post_id", post.ID, "account_id", account.ID, "platform", group.name, "error", err)
				continue
			}

			anySuccess = true
		}
	}

	return anySuccess, nil
}

// resolveTargets loads every linked account and groups them by platform,
// preserving first-seen platform order. An empty target list is a data
// integrity problem, not an account-level failure.
func (e *Executor) resolveTargets(ctx context.Context, postID int64) ([]*platformGroup, error) {
	targets, err := e.targets.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list target accounts: %w", err)
	}
	if len(targets) == 0 {
		return nil, errors.New("no accounts linked to this post")
	}

	var groups []*platformGroup
	byPlatform := make(map[string]*platformGroup)

	for _, target := range targets {
		account, err := e.accounts.GetByID(ctx, target.AccountID)
		if err != nil {
			slog.Error("error retrieving social account", "account_id", target.AccountID, "error", err)
			continue
		}
		if account == nil {
			slog.Warn("social account no longer exists", "account_id", target.AccountID)
			continue
		}

		group, ok := byPlatform[account.Platform]
		if !ok {
			group = &platformGroup{name: account.Platform}
			byPlatform[account.Platform] = group
			groups = append(groups, group)
		}
		group.accounts = append(group.accounts, account)
	}

	return groups, nil
}

func (e *Executor) publishToAccount(ctx context.Context, post *models.Post, caption string, account *models.SocialAccount, publisher platform.Publisher) error {
	release, err := e.locks.Acquire(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("account lock: %w", err)
	}
	defer release(ctx)

	creds, err := e.creds.Resolve(ctx, account.ID)
	if err != nil {
		return err
	}

	req := platform.PublishRequest{
		MediaURL:        post.MediaURL,
		Caption:         caption,
		Title:           post.Title,
		Tags:            post.Tags,
		PostType:        post.PostType,
		PrivacyStatus:   post.PrivacyStatus,
		DisableComments: post.DisableComments,
		ShareToFeed:     post.ShareToFeed,
	}

	return e.executeWithRetries(ctx, account.ID, func() error {
		return publisher.Publish(ctx, creds, req)
	})
}

func (e *Executor) setStatus(ctx context.Context, postID int64, status, errorMessage string) {
	if err := e.posts.UpdateStatus(ctx, postID, status, errorMessage); err != nil {
		slog.Error("failed to update post status", "post_id", postID, "status", status, "error", err)
	}
}
