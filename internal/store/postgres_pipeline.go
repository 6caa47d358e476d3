package store

import (
	"context"
	"fmt"
)

// Pipeline updates leave updated_at alone so that asset processing never
// reorders feeds.

func (r *PostgresRepo) UpdateAssetByUpload(ctx context.Context, uploadID string, u AssetUpdate) error {
	const q = `UPDATE videos SET
  mux_status = COALESCE($2, mux_status),
  mux_asset_id = COALESCE($3, mux_asset_id),
  mux_playback_id = COALESCE($4, mux_playback_id),
  thumbnail_url = COALESCE($5, thumbnail_url),
  preview_url = COALESCE($6, preview_url),
  duration_ms = COALESCE($7, duration_ms)
WHERE mux_upload_id = $1`

	tag, err := r.pool.Exec(ctx, q, uploadID, u.MuxStatus, u.MuxAssetID, u.MuxPlaybackID, u.ThumbnailURL, u.PreviewURL, u.DurationMS)
	if err != nil {
		return mapError(fmt.Sprintf("update asset for upload %s", uploadID), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) UpdateTrackByAsset(ctx context.Context, assetID, trackID, trackStatus string) error {
	const q = `UPDATE videos SET mux_track_id = $2, mux_track_status = $3 WHERE mux_asset_id = $1`
	tag, err := r.pool.Exec(ctx, q, assetID, trackID, trackStatus)
	if err != nil {
		return mapError(fmt.Sprintf("update track for asset %s", assetID), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteVideoByUpload(ctx context.Context, uploadID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE mux_upload_id = $1`, uploadID)
	if err != nil {
		return mapError(fmt.Sprintf("delete video for upload %s", uploadID), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
