package store

import (
	"fmt"
	"strings"
)

// countAgg is a per-row aggregate computed as a correlated count subquery, so
// base rows never fan out and zero matches yield 0.
type countAgg struct {
	table  string
	fk     string
	filter string
}

func (c countAgg) expr(rowID string) string {
	q := fmt.Sprintf("(SELECT count(*) FROM %s x WHERE x.%s = %s", c.table, c.fk, rowID)
	if c.filter != "" {
		q += " AND x." + c.filter
	}
	return q + ")"
}

var (
	videoViewCount       = countAgg{table: "video_views", fk: "video_id"}
	videoLikeCount       = countAgg{table: "video_reactions", fk: "video_id", filter: "type = 'like'"}
	videoDislikeCount    = countAgg{table: "video_reactions", fk: "video_id", filter: "type = 'dislike'"}
	videoCommentCount    = countAgg{table: "video_comments", fk: "video_id"}
	commentLikeCount     = countAgg{table: "comment_reactions", fk: "comment_id", filter: "type = 'like'"}
	commentDislikeCount  = countAgg{table: "comment_reactions", fk: "comment_id", filter: "type = 'dislike'"}
	creatorSubscriberCnt = countAgg{table: "subscriptions", fk: "creator_id"}
	creatorVideoCount    = countAgg{table: "videos", fk: "user_id", filter: "visibility = 'public'"}
	playlistVideoCount   = countAgg{table: "playlist_videos", fk: "playlist_id"}
)

// viewerLookup is a left-correlated lookup of the viewer's own row for each
// base row. The viewer is bound as an array so that an anonymous caller
// matches nothing instead of comparing against NULL.
type viewerLookup struct {
	table     string
	alias     string
	rowFK     string
	viewerCol string
}

func (l viewerLookup) join(a *args, rowID, viewerID string) string {
	return fmt.Sprintf("LEFT JOIN %[1]s %[2]s ON %[2]s.%[3]s = %[4]s AND %[2]s.%[5]s = ANY(%[6]s)",
		l.table, l.alias, l.rowFK, rowID, l.viewerCol, a.bind(viewerIDs(viewerID)))
}

var (
	viewerVideoReaction   = viewerLookup{table: "video_reactions", alias: "vr", rowFK: "video_id", viewerCol: "user_id"}
	viewerCommentReaction = viewerLookup{table: "comment_reactions", alias: "cr", rowFK: "comment_id", viewerCol: "user_id"}
	viewerSubscription    = viewerLookup{table: "subscriptions", alias: "vs", rowFK: "creator_id", viewerCol: "viewer_id"}
	playlistMembership    = viewerLookup{table: "playlist_videos", alias: "pv", rowFK: "playlist_id", viewerCol: "video_id"}
)

// viewerIDs is the lookup list for a viewer: empty when anonymous.
func viewerIDs(id string) []string {
	if id == "" {
		return []string{}
	}
	return []string{id}
}

func videoColumns(alias string) string {
	cols := []string{
		"id", "user_id", "title", "description", "visibility::text", "category_id",
		"mux_status", "mux_upload_id", "mux_asset_id", "mux_playback_id", "mux_track_id",
		"mux_track_status", "thumbnail_url", "preview_url", "duration_ms", "created_at", "updated_at",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func videoAggregates(rowID string) string {
	return strings.Join([]string{
		videoViewCount.expr(rowID),
		videoLikeCount.expr(rowID),
		videoDislikeCount.expr(rowID),
		videoCommentCount.expr(rowID),
	}, ",\n\t")
}

// videoFeedSQL composes a decorated video feed. The page CTE applies filters,
// the keyset boundary and LIMIT to base rows; counts and the viewer's reaction
// are attached to the page afterwards.
func videoFeedSQL(a *args, viewerID string, s pageSpec) string {
	page := s.sql(a, "v.*, "+s.updated+" AS listed_at")
	return "WITH page AS (" + page + ")\n" +
		"SELECT " + videoColumns("page") + ",\n\t" +
		"u.id, u.name, u.image_url,\n\t" +
		"page.listed_at,\n\t" +
		videoAggregates("page.id") + ",\n\t" +
		"vr.type::text\n" +
		"FROM page\n" +
		"JOIN users u ON u.id = page.user_id\n" +
		viewerVideoReaction.join(a, "page.id", viewerID) + "\n" +
		"ORDER BY page.listed_at DESC, page.id DESC"
}

// videoDetailSQL selects one video with author aggregates and both viewer flags.
func videoDetailSQL(a *args, viewerID, videoID string) string {
	id := a.bind(videoID)
	reaction := viewerVideoReaction.join(a, "v.id", viewerID)
	subscribed := viewerSubscription.join(a, "u.id", viewerID)
	return "SELECT " + videoColumns("v") + ",\n\t" +
		"u.id, u.name, u.image_url,\n\t" +
		"v.updated_at,\n\t" +
		videoAggregates("v.id") + ",\n\t" +
		"vr.type::text,\n\t" +
		creatorSubscriberCnt.expr("u.id") + ",\n\t" +
		"vs.viewer_id IS NOT NULL\n" +
		"FROM videos v\n" +
		"JOIN users u ON u.id = v.user_id\n" +
		reaction + "\n" +
		subscribed + "\n" +
		"WHERE v.id = " + id + " AND (v.visibility = 'public' OR v.user_id = ANY(" + a.bind(viewerIDs(viewerID)) + "))"
}

// commentFeedSQL composes a decorated comment feed. Reply counts are grouped
// only over the comments of the page.
func commentFeedSQL(a *args, viewerID string, s pageSpec) string {
	page := s.sql(a, "c.*")
	return "WITH page AS (" + page + "),\n" +
		"replies AS (SELECT parent_id, count(*) AS count FROM video_comments WHERE parent_id IN (SELECT id FROM page) GROUP BY parent_id)\n" +
		"SELECT page.id, page.video_id, page.user_id, page.parent_id, page.content, page.created_at, page.updated_at,\n\t" +
		"u.id, u.name, u.image_url,\n\t" +
		commentLikeCount.expr("page.id") + ",\n\t" +
		commentDislikeCount.expr("page.id") + ",\n\t" +
		"COALESCE(r.count, 0),\n\t" +
		"cr.type::text\n" +
		"FROM page\n" +
		"JOIN users u ON u.id = page.user_id\n" +
		"LEFT JOIN replies r ON r.parent_id = page.id\n" +
		viewerCommentReaction.join(a, "page.id", viewerID) + "\n" +
		"ORDER BY page.updated_at DESC, page.id DESC"
}

// subscriptionFeedSQL lists the creators a viewer follows.
func subscriptionFeedSQL(a *args, s pageSpec) string {
	page := s.sql(a, "s.*")
	return "WITH page AS (" + page + ")\n" +
		"SELECT page.viewer_id, page.creator_id, page.created_at, page.updated_at,\n\t" +
		"u.id, u.name, u.image_url,\n\t" +
		creatorSubscriberCnt.expr("page.creator_id") + ",\n\t" +
		creatorVideoCount.expr("page.creator_id") + "\n" +
		"FROM page\n" +
		"JOIN users u ON u.id = page.creator_id\n" +
		"ORDER BY page.updated_at DESC, page.creator_id DESC"
}

// playlistFeedSQL lists playlists with their size and, when videoID is set,
// whether each one contains that video.
func playlistFeedSQL(a *args, videoID string, s pageSpec) string {
	page := s.sql(a, "p.*")
	return "WITH page AS (" + page + ")\n" +
		"SELECT page.id, page.user_id, page.name, page.description, page.created_at, page.updated_at,\n\t" +
		playlistVideoCount.expr("page.id") + ",\n\t" +
		"pv.video_id IS NOT NULL\n" +
		"FROM page\n" +
		playlistMembership.join(a, "page.id", videoID) + "\n" +
		"ORDER BY page.updated_at DESC, page.id DESC"
}
