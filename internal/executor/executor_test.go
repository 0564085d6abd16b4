package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/platform"
	"github.com/varunm24/socialflow/internal/service"
)

type statusUpdate struct {
	status       string
	errorMessage string
}

type fakePostStore struct {
	updates []statusUpdate
}

func (f *fakePostStore) UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error {
	f.updates = append(f.updates, statusUpdate{status: status, errorMessage: errorMessage})
	return nil
}

func (f *fakePostStore) lastStatus() string {
	if len(f.updates) == 0 {
		return ""
	}
	return f.updates[len(f.updates)-1].status
}

type fakeTargets struct {
	targets []*models.PostAccount
	err     error
}

func (f *fakeTargets) ListByPostID(ctx context.Context, postID int64) ([]*models.PostAccount, error) {
	return f.targets, f.err
}

type fakeAccounts struct {
	accounts map[int64]*models.SocialAccount
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return f.accounts[id], nil
}

type fakeUsage struct {
	errByPlatform map[string]error
	calls         []string
}

func (f *fakeUsage) CheckAndConsume(ctx context.Context, userID int64, platformName, action string) error {
	f.calls = append(f.calls, platformName)
	return f.errByPlatform[platformName]
}

type fakeLocker struct {
	unavailable map[int64]bool
	acquired    []int64
	released    []int64
}

func (f *fakeLocker) Acquire(ctx context.Context, accountID int64) (func(context.Context), error) {
	if f.unavailable[accountID] {
		return nil, errors.New("account lock not acquired")
	}
	f.acquired = append(f.acquired, accountID)
	return func(context.Context) {
		f.released = append(f.released, accountID)
	}, nil
}

type fakeCredentials struct{}

func (fakeCredentials) Resolve(ctx context.Context, accountID int64) (platform.Credentials, error) {
	return platform.Credentials{Kind: platform.CredentialOAuth, AccountID: accountID, AccessToken: "token"}, nil
}

// fakePublisher replays a fixed error sequence per account; once the
// sequence is exhausted every further call succeeds.
type fakePublisher struct {
	errs  map[int64][]error
	calls map[int64]int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{errs: make(map[int64][]error), calls: make(map[int64]int)}
}

func (f *fakePublisher) Publish(ctx context.Context, creds platform.Credentials, req platform.PublishRequest) error {
	n := f.calls[creds.AccountID]
	f.calls[creds.AccountID]++
	if seq := f.errs[creds.AccountID]; n < len(seq) {
		return seq[n]
	}
	return nil
}

func alwaysFailing(err error, attempts int) []error {
	seq := make([]error, attempts)
	for i := range seq {
		seq[i] = err
	}
	return seq
}

type fixture struct {
	executor  *Executor
	posts     *fakePostStore
	usage     *fakeUsage
	locks     *fakeLocker
	publisher *fakePublisher
}

func newFixture(t *testing.T, accounts ...*models.SocialAccount) *fixture {
	t.Helper()

	posts := &fakePostStore{}
	usage := &fakeUsage{errByPlatform: make(map[string]error)}
	locks := &fakeLocker{unavailable: make(map[int64]bool)}
	publisher := newFakePublisher()

	targets := &fakeTargets{}
	accountStore := &fakeAccounts{accounts: make(map[int64]*models.SocialAccount)}
	for _, account := range accounts {
		targets.targets = append(targets.targets, &models.PostAccount{PostID: 1, AccountID: account.ID})
		accountStore.accounts[account.ID] = account
	}

	e := New(posts, targets, accountStore, usage, locks, fakeCredentials{}, map[string]platform.Publisher{
		models.PlatformInstagram: publisher,
		models.PlatformYoutube:   publisher,
	})
	e.retryDelay = 0

	return &fixture{executor: e, posts: posts, usage: usage, locks: locks, publisher: publisher}
}

func instagramAccount(id int64) *models.SocialAccount {
	return &models.SocialAccount{ID: id, UserID: 10, Platform: models.PlatformInstagram}
}

func youtubeAccount(id int64) *models.SocialAccount {
	return &models.SocialAccount{ID: id, UserID: 10, Platform: models.PlatformYoutube}
}

func testPost() *models.Post {
	return &models.Post{ID: 1, UserID: 10, MediaURL: "https://cdn.example.com/clip.mp4", Title: "hello", PostType: "reel"}
}

func TestExecute_PartialSuccessIsPosted(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2))
	f.publisher.errs[1] = alwaysFailing(errors.New("rate limited"), 10)

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPosted, f.posts.lastStatus())
	assert.Equal(t, 3, f.publisher.calls[1], "failing account should exhaust its retries")
	assert.Equal(t, 1, f.publisher.calls[2])
}

func TestExecute_AllFailuresIsFailed(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2))
	f.publisher.errs[1] = alwaysFailing(errors.New("boom"), 10)
	f.publisher.errs[2] = alwaysFailing(errors.New("boom"), 10)

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, f.posts.lastStatus())
	assert.Equal(t, "all accounts failed", f.posts.updates[len(f.posts.updates)-1].errorMessage)
}

func TestExecute_FalseNegativeCountsAsSuccess(t *testing.T) {
	f := newFixture(t, instagramAccount(1))
	f.publisher.errs[1] = []error{fmt.Errorf("configure: %w", platform.ErrMediaValidation)}

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPosted, f.posts.lastStatus())
	assert.Equal(t, 1, f.publisher.calls[1], "no retries may follow the validation error")
}

func TestExecute_QuotaBlockSkipsWholePlatform(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2))
	f.usage.errByPlatform[models.PlatformInstagram] = service.ErrDailyLimitReached

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, f.posts.lastStatus())
	assert.Zero(t, f.publisher.calls[1])
	assert.Zero(t, f.publisher.calls[2])
	assert.Len(t, f.usage.calls, 1, "quota is checked once per platform, not per account")
}

func TestExecute_QuotaBlockOnOnePlatformOnly(t *testing.T) {
	f := newFixture(t, instagramAccount(1), youtubeAccount(2))
	f.usage.errByPlatform[models.PlatformInstagram] = service.ErrNoActiveSubscription

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPosted, f.posts.lastStatus())
	assert.Zero(t, f.publisher.calls[1])
	assert.Equal(t, 1, f.publisher.calls[2])
}

func TestExecute_UsageConsumedOncePerPlatformGroup(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2), youtubeAccount(3))

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, []string{models.PlatformInstagram, models.PlatformYoutube}, f.usage.calls)
}

func TestExecute_NoTargetsIsFatal(t *testing.T) {
	f := newFixture(t)

	err := f.executor.Execute(context.Background(), testPost())
	require.Error(t, err)

	assert.Equal(t, models.PostStatusFailed, f.posts.lastStatus())
	assert.Zero(t, len(f.publisher.calls))
}

func TestExecute_MissingUserIsFatal(t *testing.T) {
	f := newFixture(t, instagramAccount(1))

	post := testPost()
	post.UserID = 0

	err := f.executor.Execute(context.Background(), post)
	require.Error(t, err)
	assert.Equal(t, models.PostStatusFailed, f.posts.lastStatus())
}

func TestExecute_UnsupportedPlatformIsSkipped(t *testing.T) {
	f := newFixture(t, youtubeAccount(2))
	tiktok := &models.SocialAccount{ID: 1, UserID: 10, Platform: "tiktok"}
	f.executor.accounts.(*fakeAccounts).accounts[1] = tiktok
	f.executor.targets.(*fakeTargets).targets = append(
		[]*models.PostAccount{{PostID: 1, AccountID: 1}},
		f.executor.targets.(*fakeTargets).targets...)

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPosted, f.posts.lastStatus())
	assert.NotContains(t, f.usage.calls, "tiktok", "unsupported platforms consume no quota")
}

func TestExecute_LockUnavailableFailsOnlyThatAccount(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2))
	f.locks.unavailable[1] = true

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPosted, f.posts.lastStatus())
	assert.Zero(t, f.publisher.calls[1])
	assert.Equal(t, 1, f.publisher.calls[2])
}

func TestExecute_LockReleasedAfterPublish(t *testing.T) {
	f := newFixture(t, instagramAccount(1), instagramAccount(2))
	f.publisher.errs[1] = alwaysFailing(errors.New("boom"), 10)

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	assert.Equal(t, f.locks.acquired, f.locks.released, "every acquired lock must be released")
}

func TestExecute_ProcessingIsFirstTransition(t *testing.T) {
	f := newFixture(t, instagramAccount(1))

	err := f.executor.Execute(context.Background(), testPost())
	require.NoError(t, err)

	require.NotEmpty(t, f.posts.updates)
	assert.Equal(t, models.PostStatusProcessing, f.posts.updates[0].status)
}
