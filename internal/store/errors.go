package store

import "errors"

// ErrConflict is returned when a unique key already exists.
var ErrConflict = errors.New("object already exists")

// ErrNotFound is returned when an object is not found, or is not visible to the caller.
var ErrNotFound = errors.New("object not found")

// ErrInvalidParent is returned when a reply targets a missing comment, a comment
// on another video, or a comment that is itself a reply.
var ErrInvalidParent = errors.New("invalid parent comment")

// ErrSelfSubscription is returned when a viewer tries to (un)subscribe to themselves.
var ErrSelfSubscription = errors.New("cannot subscribe to yourself")

// ErrInvalidCursor is returned when a cursor token cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// ErrInvalidLimit is returned when a page size is outside [MinLimit, MaxLimit].
var ErrInvalidLimit = errors.New("limit out of range")

// ErrAnonymous is returned when a viewer-scoped feed is requested without a viewer.
var ErrAnonymous = errors.New("viewer required")
