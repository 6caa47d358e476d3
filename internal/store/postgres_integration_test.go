//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/api/migrations"
)

// newIntegrationRepo connects to VIDTUBE_TEST_DATABASE_URL, applies the
// migrations and empties every table.
func newIntegrationRepo(t *testing.T) *PostgresRepo {
	t.Helper()
	dsn := os.Getenv("VIDTUBE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("VIDTUBE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = RunMigrations(ctx, pool, migrations.FS)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE users, categories, videos, video_views, video_reactions,
video_comments, comment_reactions, subscriptions, playlists, playlist_videos CASCADE`)
	require.NoError(t, err)
	return NewPostgresRepo(pool)
}

func mustUser(t *testing.T, r *PostgresRepo, id string) {
	t.Helper()
	_, err := r.UpsertUser(context.Background(), User{ID: id, Name: id})
	require.NoError(t, err)
}

func mustPublicVideo(t *testing.T, r *PostgresRepo, owner, title string) string {
	t.Helper()
	ctx := context.Background()
	v, err := r.CreateVideo(ctx, NewVideo{UserID: owner, Title: title})
	require.NoError(t, err)
	public := VisibilityPublic
	_, err = r.UpdateVideo(ctx, owner, v.ID, VideoUpdate{Visibility: &public})
	require.NoError(t, err)
	return v.ID
}

func TestPostgres_VideoFeedPaging(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()
	mustUser(t, r, "creator")
	for i := 0; i < 25; i++ {
		mustPublicVideo(t, r, "creator", fmt.Sprintf("video %d", i))
	}
	_, err := r.CreateVideo(ctx, NewVideo{UserID: "creator", Title: "draft"})
	require.NoError(t, err)

	seen := map[string]bool{}
	var sizes []int
	p := PageRequest{Limit: 10}
	for {
		page, err := r.ListVideos(ctx, "", VideoFilter{}, p)
		require.NoError(t, err)
		sizes = append(sizes, len(page.Items))
		for i, v := range page.Items {
			assert.False(t, seen[v.ID])
			seen[v.ID] = true
			if i > 0 {
				assert.Equal(t, 1, CompareKeys(page.Items[i-1].Key(), v.Key()))
			}
		}
		if page.NextCursor == nil {
			break
		}
		p.Cursor = page.NextCursor
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
}

func TestPostgres_AggregatesAndReactions(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()
	for _, id := range []string{"creator", "alice", "bob"} {
		mustUser(t, r, id)
	}
	id := mustPublicVideo(t, r, "creator", "clip")

	got, err := r.ToggleVideoReaction(ctx, "alice", id, ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionLike, *got)
	got, err = r.ToggleVideoReaction(ctx, "bob", id, ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, ReactionDislike, *got)
	require.NoError(t, r.RecordView(ctx, "alice", id))
	require.NoError(t, r.RecordView(ctx, "alice", id))

	detail, err := r.GetVideo(ctx, "alice", id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.ViewCount)
	assert.EqualValues(t, 1, detail.LikeCount)
	assert.EqualValues(t, 1, detail.DislikeCount)
	assert.Equal(t, ReactionLike, *detail.ViewerReaction)

	anon, err := r.GetVideo(ctx, "", id)
	require.NoError(t, err)
	assert.Nil(t, anon.ViewerReaction)

	got, err = r.ToggleVideoReaction(ctx, "alice", id, ReactionLike)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgres_CommentsAndSubscriptions(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()
	mustUser(t, r, "creator")
	mustUser(t, r, "alice")
	id := mustPublicVideo(t, r, "creator", "clip")

	root, err := r.CreateComment(ctx, NewComment{VideoID: id, UserID: "alice", Content: "root"})
	require.NoError(t, err)
	reply, err := r.CreateComment(ctx, NewComment{VideoID: id, UserID: "creator", ParentID: &root.ID, Content: "reply"})
	require.NoError(t, err)
	_, err = r.CreateComment(ctx, NewComment{VideoID: id, UserID: "alice", ParentID: &reply.ID, Content: "deep"})
	assert.ErrorIs(t, err, ErrInvalidParent)

	page, err := r.ListComments(ctx, "", CommentFilter{VideoID: id}, PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Items[0].RepliesCount)
	assert.EqualValues(t, 2, page.TotalCount)

	_, err = r.Subscribe(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfSubscription)
	_, err = r.Subscribe(ctx, "alice", "creator")
	require.NoError(t, err)
	_, err = r.Subscribe(ctx, "alice", "creator")
	require.NoError(t, err)

	subs, err := r.ListSubscriptions(ctx, "alice", PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, subs.Items, 1)
	assert.EqualValues(t, 1, subs.Items[0].VideoCount)
	assert.EqualValues(t, 1, subs.Items[0].SubscriberCount)

	feed, err := r.ListSubscribedVideos(ctx, "alice", PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, feed.Items, 1)
	_, err = r.ListSubscribedVideos(ctx, "", PageRequest{Limit: 10})
	assert.ErrorIs(t, err, ErrAnonymous)
}

func TestPostgres_PlaylistsAndPipeline(t *testing.T) {
	r := newIntegrationRepo(t)
	ctx := context.Background()
	mustUser(t, r, "creator")
	id := mustPublicVideo(t, r, "creator", "clip")

	pl, err := r.CreatePlaylist(ctx, "creator", "faves", nil)
	require.NoError(t, err)
	require.NoError(t, r.AddPlaylistVideo(ctx, "creator", pl.ID, id))
	assert.ErrorIs(t, r.AddPlaylistVideo(ctx, "creator", pl.ID, id), ErrConflict)

	rows, err := r.ListPlaylists(ctx, "creator", id, PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows.Items, 1)
	assert.True(t, rows.Items[0].ContainsVideo)
	assert.EqualValues(t, 1, rows.Items[0].VideoCount)

	upload := "upload-1"
	v, err := r.CreateVideo(ctx, NewVideo{UserID: "creator", Title: "uploading", MuxUploadID: &upload})
	require.NoError(t, err)
	status, playback := "ready", "pb-1"
	require.NoError(t, r.UpdateAssetByUpload(ctx, upload, AssetUpdate{MuxStatus: &status, MuxPlaybackID: &playback}))
	got, err := r.GetStudioVideo(ctx, "creator", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "pb-1", *got.MuxPlaybackID)
	assert.True(t, v.UpdatedAt.Equal(got.UpdatedAt))

	assert.ErrorIs(t, r.UpdateAssetByUpload(ctx, "missing", AssetUpdate{MuxStatus: &status}), ErrNotFound)
	require.NoError(t, r.DeleteVideoByUpload(ctx, upload))
}
