package store

import "time"

// Visibility controls who can see a video outside the studio.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ReactionType is the kind of reaction a viewer leaves on a video or comment.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether t is a known reaction.
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// Pipeline statuses assigned before the transcoding provider reports back.
const (
	MuxStatusWaiting = "waiting"
	MuxStatusReady   = "ready"
)

// User is a row in the users table. Users are provisioned from identity tokens.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Author is the public projection of a user embedded in feed rows.
type Author struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// Category groups videos for browsing.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Video is a row in the videos table.
type Video struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Visibility     Visibility `json:"visibility"`
	CategoryID     *string    `json:"categoryId"`
	MuxStatus      *string    `json:"muxStatus"`
	MuxUploadID    *string    `json:"muxUploadId,omitempty"`
	MuxAssetID     *string    `json:"muxAssetId,omitempty"`
	MuxPlaybackID  *string    `json:"muxPlaybackId"`
	MuxTrackID     *string    `json:"muxTrackId,omitempty"`
	MuxTrackStatus *string    `json:"muxTrackStatus,omitempty"`
	ThumbnailURL   *string    `json:"thumbnailUrl"`
	PreviewURL     *string    `json:"previewUrl"`
	DurationMS     int        `json:"duration"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// VideoUpdate carries the owner-editable fields of a video. Nil fields are left unchanged.
type VideoUpdate struct {
	Title       *string
	Description *string
	CategoryID  *string
	Visibility  *Visibility
}

// AssetUpdate carries the fields the video pipeline reports for an upload.
// Nil fields are left unchanged.
type AssetUpdate struct {
	MuxStatus     *string
	MuxAssetID    *string
	MuxPlaybackID *string
	ThumbnailURL  *string
	PreviewURL    *string
	DurationMS    *int
}

// VideoRow is a video decorated with its author, aggregate counts and the
// viewer's own reaction.
type VideoRow struct {
	Video
	User           Author        `json:"user"`
	ViewCount      int64         `json:"viewCount"`
	LikeCount      int64         `json:"likeCount"`
	DislikeCount   int64         `json:"dislikeCount"`
	CommentCount   int64         `json:"commentCount"`
	ViewerReaction *ReactionType `json:"viewerReaction"`

	// ListedAt is the sort key of the row within its feed. It equals UpdatedAt
	// for plain video feeds and the membership/view/reaction time otherwise.
	ListedAt time.Time `json:"-"`
}

// Key returns the keyset position of the row.
func (r VideoRow) Key() Cursor {
	return Cursor{ID: r.ID, UpdatedAt: r.ListedAt}
}

// VideoDetail is a single video with author-level aggregates.
type VideoDetail struct {
	VideoRow
	SubscriberCount  int64 `json:"subscriberCount"`
	ViewerSubscribed bool  `json:"viewerSubscribed"`
}

// Comment is a row in the video_comments table.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	ParentID  *string   `json:"parentId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentRow is a comment decorated for display.
type CommentRow struct {
	Comment
	User           Author        `json:"user"`
	LikeCount      int64         `json:"likeCount"`
	DislikeCount   int64         `json:"dislikeCount"`
	RepliesCount   int64         `json:"repliesCount"`
	ViewerReaction *ReactionType `json:"viewerReaction"`
}

// Key returns the keyset position of the row.
func (r CommentRow) Key() Cursor {
	return Cursor{ID: r.ID, UpdatedAt: r.UpdatedAt}
}

// CommentPage is a page of comments plus the total comment count of the video.
type CommentPage struct {
	Page[CommentRow]
	TotalCount int64 `json:"totalCount"`
}

// Subscription is a row in the subscriptions table.
type Subscription struct {
	ViewerID  string    `json:"viewerId"`
	CreatorID string    `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscriptionRow is a followed creator with creator-level aggregates.
type SubscriptionRow struct {
	Subscription
	Creator         Author `json:"creator"`
	SubscriberCount int64  `json:"subscriberCount"`
	VideoCount      int64  `json:"videoCount"`
}

// Key returns the keyset position of the row. The creator id is unique within
// one viewer's subscriptions.
func (r SubscriptionRow) Key() Cursor {
	return Cursor{ID: r.CreatorID, UpdatedAt: r.UpdatedAt}
}

// UserProfile is a user with channel aggregates.
type UserProfile struct {
	Author
	CreatedAt        time.Time `json:"createdAt"`
	VideoCount       int64     `json:"videoCount"`
	SubscriberCount  int64     `json:"subscriberCount"`
	ViewerSubscribed bool      `json:"viewerSubscribed"`
}

// Playlist is a row in the playlists table.
type Playlist struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistRow is a playlist with its size and, when asked about a specific
// video, whether that video is in it.
type PlaylistRow struct {
	Playlist
	VideoCount    int64 `json:"videoCount"`
	ContainsVideo bool  `json:"containsVideo"`
}

// Key returns the keyset position of the row.
func (r PlaylistRow) Key() Cursor {
	return Cursor{ID: r.ID, UpdatedAt: r.UpdatedAt}
}
