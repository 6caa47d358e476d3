package store

import "context"

// VideoFilter narrows the public video feed.
type VideoFilter struct {
	CategoryID string
	UserID     string
}

// SearchFilter narrows a title search. An empty Query matches every title.
type SearchFilter struct {
	Query      string
	CategoryID string
}

// CommentFilter selects top-level comments of a video, or the replies to
// ParentID when it is set.
type CommentFilter struct {
	VideoID  string
	ParentID *string
}

// NewVideo is a draft video created from the studio.
type NewVideo struct {
	UserID      string
	Title       string
	MuxUploadID *string
}

// NewComment is a comment or reply posted by a viewer.
type NewComment struct {
	VideoID  string
	UserID   string
	ParentID *string
	Content  string
}

// VideoRepo covers video feeds, the studio and per-viewer video mutations.
// A viewerID of "" is an anonymous caller.
type VideoRepo interface {
	ListVideos(ctx context.Context, viewerID string, f VideoFilter, p PageRequest) (Page[VideoRow], error)
	ListSubscribedVideos(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error)
	SearchVideos(ctx context.Context, viewerID string, f SearchFilter, p PageRequest) (Page[VideoRow], error)
	ListSuggestions(ctx context.Context, viewerID, videoID string, p PageRequest) (Page[VideoRow], error)
	GetVideo(ctx context.Context, viewerID, videoID string) (*VideoDetail, error)

	ListStudioVideos(ctx context.Context, ownerID string, p PageRequest) (Page[VideoRow], error)
	GetStudioVideo(ctx context.Context, ownerID, videoID string) (*Video, error)
	CreateVideo(ctx context.Context, v NewVideo) (*Video, error)
	UpdateVideo(ctx context.Context, ownerID, videoID string, u VideoUpdate) (*Video, error)
	DeleteVideo(ctx context.Context, ownerID, videoID string) error

	RecordView(ctx context.Context, viewerID, videoID string) error
	// ToggleVideoReaction returns the viewer's reaction after the toggle, nil
	// when it was removed.
	ToggleVideoReaction(ctx context.Context, viewerID, videoID string, t ReactionType) (*ReactionType, error)
}

// CommentRepo covers nested comments and their reactions.
type CommentRepo interface {
	ListComments(ctx context.Context, viewerID string, f CommentFilter, p PageRequest) (*CommentPage, error)
	CreateComment(ctx context.Context, c NewComment) (*Comment, error)
	DeleteComment(ctx context.Context, userID, videoID, commentID string) error
	ToggleCommentReaction(ctx context.Context, viewerID, commentID string, t ReactionType) (*ReactionType, error)
}

// SubscriptionRepo covers viewer to creator subscriptions.
type SubscriptionRepo interface {
	ListSubscriptions(ctx context.Context, viewerID string, p PageRequest) (Page[SubscriptionRow], error)
	Subscribe(ctx context.Context, viewerID, creatorID string) (*Subscription, error)
	Unsubscribe(ctx context.Context, viewerID, creatorID string) error
}

// UserRepo covers user provisioning and channel profiles.
type UserRepo interface {
	UpsertUser(ctx context.Context, u User) (*User, error)
	GetUserProfile(ctx context.Context, viewerID, userID string) (*UserProfile, error)
}

// PlaylistRepo covers owner-scoped playlists and the implicit history and
// liked lists.
type PlaylistRepo interface {
	// ListPlaylists lists the owner's playlists. When videoID is set each row
	// reports whether it contains that video.
	ListPlaylists(ctx context.Context, ownerID, videoID string, p PageRequest) (Page[PlaylistRow], error)
	GetPlaylist(ctx context.Context, ownerID, playlistID string) (*PlaylistRow, error)
	CreatePlaylist(ctx context.Context, ownerID, name string, description *string) (*Playlist, error)
	DeletePlaylist(ctx context.Context, ownerID, playlistID string) error
	AddPlaylistVideo(ctx context.Context, ownerID, playlistID, videoID string) error
	RemovePlaylistVideo(ctx context.Context, ownerID, playlistID, videoID string) error
	ListPlaylistVideos(ctx context.Context, ownerID, playlistID string, p PageRequest) (Page[VideoRow], error)
	ListHistory(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error)
	ListLiked(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error)
}

// CategoryRepo covers the fixed category list.
type CategoryRepo interface {
	ListCategories(ctx context.Context) ([]Category, error)
	// EnsureCategories inserts categories whose name is not present yet.
	EnsureCategories(ctx context.Context, cats []Category) error
}

// PipelineRepo applies asset lifecycle events reported by the video pipeline.
// These updates do not move a video within feeds.
type PipelineRepo interface {
	UpdateAssetByUpload(ctx context.Context, uploadID string, u AssetUpdate) error
	UpdateTrackByAsset(ctx context.Context, assetID, trackID, trackStatus string) error
	DeleteVideoByUpload(ctx context.Context, uploadID string) error
}

// Repo is the full storage contract served by the Postgres and memory stores.
type Repo interface {
	VideoRepo
	CommentRepo
	SubscriptionRepo
	UserRepo
	PlaylistRepo
	CategoryRepo
	PipelineRepo
	Ping(ctx context.Context) error
}
