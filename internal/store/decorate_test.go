package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountAgg_Expr(t *testing.T) {
	assert.Equal(t,
		"(SELECT count(*) FROM video_views x WHERE x.video_id = page.id)",
		videoViewCount.expr("page.id"))
	assert.Equal(t,
		"(SELECT count(*) FROM video_reactions x WHERE x.video_id = page.id AND x.type = 'like')",
		videoLikeCount.expr("page.id"))
}

func TestViewerLookup_AnonymousBindsEmptyArray(t *testing.T) {
	var a args
	j := viewerVideoReaction.join(&a, "page.id", "")

	assert.Equal(t, "LEFT JOIN video_reactions vr ON vr.video_id = page.id AND vr.user_id = ANY($1)", j)
	require.Len(t, a, 1)
	assert.Equal(t, []string{}, a[0])

	a = nil
	viewerVideoReaction.join(&a, "page.id", "user-1")
	assert.Equal(t, []string{"user-1"}, a[0])
}

func TestVideoFeedSQL_LimitBeforeDecoration(t *testing.T) {
	var a args
	s := pageSpec{
		from:    "videos v JOIN subscriptions s ON s.creator_id = v.user_id AND s.viewer_id = " + a.bind("viewer"),
		where:   []string{"v.visibility = 'public'"},
		updated: "v.updated_at",
		id:      "v.id",
		page:    PageRequest{Limit: 10},
	}
	q := videoFeedSQL(&a, "viewer", s)

	cte := q[:strings.Index(q, ")\nSELECT")]
	assert.Contains(t, cte, "JOIN subscriptions s", "narrowing join belongs to the page")
	assert.Contains(t, cte, "LIMIT $2")
	assert.NotContains(t, cte, "video_reactions", "decoration must not touch base rows")

	rest := q[len(cte):]
	assert.Contains(t, rest, "LEFT JOIN video_reactions vr ON vr.video_id = page.id AND vr.user_id = ANY($3)")
	assert.Contains(t, rest, "ORDER BY page.listed_at DESC, page.id DESC")
	assert.NotContains(t, rest, "LIMIT")
	assert.Equal(t, args{"viewer", 11, []string{"viewer"}}, a)
}

func TestVideoFeedSQL_ListedAtFollowsSortColumn(t *testing.T) {
	var a args
	s := pageSpec{
		from:    "videos v JOIN video_views m ON m.video_id = v.id AND m.user_id = " + a.bind("viewer"),
		updated: "m.updated_at",
		id:      "v.id",
		page:    PageRequest{Limit: 3},
	}
	q := videoFeedSQL(&a, "viewer", s)
	assert.Contains(t, q, "SELECT v.*, m.updated_at AS listed_at FROM videos v JOIN video_views m")
	assert.Contains(t, q, "ORDER BY m.updated_at DESC, v.id DESC LIMIT $2")
}

func TestCommentFeedSQL_RepliesScopedToPage(t *testing.T) {
	var a args
	s := pageSpec{
		from:    "video_comments c",
		where:   []string{"c.video_id = " + a.bind("vid"), "c.parent_id IS NULL"},
		updated: "c.updated_at",
		id:      "c.id",
		page:    PageRequest{Limit: 20},
	}
	q := commentFeedSQL(&a, "", s)

	assert.Contains(t, q, "replies AS (SELECT parent_id, count(*) AS count FROM video_comments WHERE parent_id IN (SELECT id FROM page) GROUP BY parent_id)")
	assert.Contains(t, q, "COALESCE(r.count, 0)")
	assert.Contains(t, q, "LEFT JOIN replies r ON r.parent_id = page.id")
	assert.Equal(t, []string{}, a[len(a)-1])
}

func TestPlaylistFeedSQL_MembershipFlag(t *testing.T) {
	var a args
	s := pageSpec{
		from:    "playlists p",
		where:   []string{"p.user_id = " + a.bind("owner")},
		updated: "p.updated_at",
		id:      "p.id",
		page:    PageRequest{Limit: 5},
	}
	q := playlistFeedSQL(&a, "video-1", s)

	assert.Contains(t, q, "pv.video_id IS NOT NULL")
	assert.Contains(t, q, "LEFT JOIN playlist_videos pv ON pv.playlist_id = page.id AND pv.video_id = ANY($3)")
	assert.Equal(t, []string{"video-1"}, a[2])
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% off_now"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
