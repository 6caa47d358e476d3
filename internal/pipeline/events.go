// Package pipeline applies video pipeline webhook events to stored videos.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/store"
)

// Event types delivered by the transcoding provider.
const (
	EventAssetCreated    = "video.asset.created"
	EventAssetReady      = "video.asset.ready"
	EventAssetErrored    = "video.asset.errored"
	EventAssetDeleted    = "video.asset.deleted"
	EventAssetTrackReady = "video.asset.track.ready"
)

// Outcomes reported for each processed event.
const (
	OutcomeApplied   = "applied"
	OutcomeUnmatched = "unmatched"
	OutcomeIgnored   = "ignored"
)

var (
	// ErrMissingID is returned when an event lacks the ids needed to find its video.
	ErrMissingID = errors.New("event is missing required ids")
	// ErrMalformedEvent is returned when an event's data does not decode.
	ErrMalformedEvent = errors.New("malformed event data")
)

// Event is the webhook envelope.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type playbackID struct {
	ID string `json:"id"`
}

type assetData struct {
	ID          string       `json:"id"`
	UploadID    string       `json:"upload_id"`
	Status      string       `json:"status"`
	Duration    float64      `json:"duration"`
	PlaybackIDs []playbackID `json:"playback_ids"`
}

type trackData struct {
	ID      string `json:"id"`
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
}

// Applier maps events onto video rows.
type Applier struct {
	repo      store.PipelineRepo
	logger    *zap.Logger
	imageBase string
}

// NewApplier creates an Applier. Thumbnail and preview URLs are derived from
// the playback id under https://image.mux.com.
func NewApplier(repo store.PipelineRepo, logger *zap.Logger) *Applier {
	return &Applier{repo: repo, logger: logger, imageBase: "https://image.mux.com"}
}

// Apply dispatches one event. Events for videos that no longer exist are
// acknowledged as unmatched; unknown types are ignored.
func (a *Applier) Apply(ctx context.Context, ev Event) (string, error) {
	var err error
	switch ev.Type {
	case EventAssetCreated:
		err = a.onCreated(ctx, ev.Data)
	case EventAssetReady:
		err = a.onReady(ctx, ev.Data)
	case EventAssetErrored:
		err = a.onErrored(ctx, ev.Data)
	case EventAssetDeleted:
		err = a.onDeleted(ctx, ev.Data)
	case EventAssetTrackReady:
		err = a.onTrackReady(ctx, ev.Data)
	default:
		a.logger.Debug("ignoring pipeline event", zap.String("type", ev.Type))
		return OutcomeIgnored, nil
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		a.logger.Info("pipeline event matched no video", zap.String("type", ev.Type))
		return OutcomeUnmatched, nil
	case err != nil:
		return "", err
	}
	a.logger.Info("pipeline event applied", zap.String("type", ev.Type))
	return OutcomeApplied, nil
}

func decodeAsset(raw json.RawMessage) (assetData, error) {
	var d assetData
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if d.UploadID == "" {
		return d, fmt.Errorf("%w: upload_id", ErrMissingID)
	}
	return d, nil
}

func (a *Applier) onCreated(ctx context.Context, raw json.RawMessage) error {
	d, err := decodeAsset(raw)
	if err != nil {
		return err
	}
	return a.repo.UpdateAssetByUpload(ctx, d.UploadID, store.AssetUpdate{MuxStatus: &d.Status})
}

func (a *Applier) onReady(ctx context.Context, raw json.RawMessage) error {
	d, err := decodeAsset(raw)
	if err != nil {
		return err
	}
	if len(d.PlaybackIDs) == 0 || d.PlaybackIDs[0].ID == "" {
		return fmt.Errorf("%w: playback id", ErrMissingID)
	}
	playback := d.PlaybackIDs[0].ID
	thumbnail := a.imageBase + "/" + playback + "/thumbnail.jpg"
	preview := a.imageBase + "/" + playback + "/animated.gif"
	duration := int(math.Round(d.Duration * 1000))

	return a.repo.UpdateAssetByUpload(ctx, d.UploadID, store.AssetUpdate{
		MuxStatus:     &d.Status,
		MuxAssetID:    &d.ID,
		MuxPlaybackID: &playback,
		ThumbnailURL:  &thumbnail,
		PreviewURL:    &preview,
		DurationMS:    &duration,
	})
}

func (a *Applier) onErrored(ctx context.Context, raw json.RawMessage) error {
	d, err := decodeAsset(raw)
	if err != nil {
		return err
	}
	return a.repo.UpdateAssetByUpload(ctx, d.UploadID, store.AssetUpdate{MuxStatus: &d.Status})
}

func (a *Applier) onDeleted(ctx context.Context, raw json.RawMessage) error {
	d, err := decodeAsset(raw)
	if err != nil {
		return err
	}
	return a.repo.DeleteVideoByUpload(ctx, d.UploadID)
}

func (a *Applier) onTrackReady(ctx context.Context, raw json.RawMessage) error {
	var d trackData
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if d.AssetID == "" || d.ID == "" {
		return fmt.Errorf("%w: asset_id or track id", ErrMissingID)
	}
	return a.repo.UpdateTrackByAsset(ctx, d.AssetID, d.ID, d.Status)
}
