package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
)

type statefulPostRepo struct {
	repository.PostRepository
	userID   int64
	statuses map[int64]string
}

func newStatefulPostRepo(userID int64, statuses map[int64]string) *statefulPostRepo {
	return &statefulPostRepo{userID: userID, statuses: statuses}
}

func (f *statefulPostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	_, ok := f.statuses[postID]
	return ok && userID == f.userID, nil
}

func (f *statefulPostRepo) ResetForRepost(ctx context.Context, postID, userID int64) (bool, error) {
	if f.statuses[postID] != models.PostStatusFailed || userID != f.userID {
		return false, nil
	}
	f.statuses[postID] = models.PostStatusPending
	return true, nil
}

func (f *statefulPostRepo) UpdateStatusIf(ctx context.Context, postID int64, from, to string) (bool, error) {
	if f.statuses[postID] != from {
		return false, nil
	}
	f.statuses[postID] = to
	return true, nil
}

func repostService(posts *statefulPostRepo, queue *fakeEnqueuer) PostService {
	return NewPostService(nil, posts, nil, nil, nil, nil, queue)
}

func TestRepost_FailedPostIsRequeuedAndSubmitted(t *testing.T) {
	posts := newStatefulPostRepo(7, map[int64]string{42: models.PostStatusFailed})
	queue := &fakeEnqueuer{}
	svc := repostService(posts, queue)

	err := svc.Repost(context.Background(), 7, 42)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusQueued, posts.statuses[42])
	assert.Equal(t, []int64{42}, queue.submitted)
}

func TestRepost_OnlyFailedPostsCanBeReposted(t *testing.T) {
	for _, status := range []string{
		models.PostStatusPending,
		models.PostStatusQueued,
		models.PostStatusProcessing,
		models.PostStatusPosted,
		models.PostStatusCancelled,
	} {
		t.Run(status, func(t *testing.T) {
			posts := newStatefulPostRepo(7, map[int64]string{42: status})
			queue := &fakeEnqueuer{}
			svc := repostService(posts, queue)

			err := svc.Repost(context.Background(), 7, 42)
			require.EqualError(t, err, "only failed posts can be reposted")

			assert.Equal(t, status, posts.statuses[42], "status must be untouched")
			assert.Empty(t, queue.submitted)
		})
	}
}

func TestRepost_UnknownPostIsRejected(t *testing.T) {
	posts := newStatefulPostRepo(7, map[int64]string{})
	queue := &fakeEnqueuer{}
	svc := repostService(posts, queue)

	err := svc.Repost(context.Background(), 7, 42)
	require.EqualError(t, err, "post doesn't exist")
	assert.Empty(t, queue.submitted)
}

func TestRepost_OtherUsersPostIsRejected(t *testing.T) {
	posts := newStatefulPostRepo(7, map[int64]string{42: models.PostStatusFailed})
	queue := &fakeEnqueuer{}
	svc := repostService(posts, queue)

	err := svc.Repost(context.Background(), 8, 42)
	require.EqualError(t, err, "post doesn't exist")
	assert.Equal(t, models.PostStatusFailed, posts.statuses[42])
	assert.Empty(t, queue.submitted)
}
