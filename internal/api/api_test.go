package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/config"
	"github.com/vidtube/api/internal/observability"
	"github.com/vidtube/api/internal/pipeline"
	"github.com/vidtube/api/internal/ratelimit"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/internal/store/memstore"
	"github.com/vidtube/api/internal/util"
)

const webhookSecret = "whsec_test"

type testEnv struct {
	t       *testing.T
	repo    *memstore.Store
	auth    *auth.Validator
	metrics *observability.Collector
	handler http.Handler
}

func newTestEnv(t *testing.T, perMinute int) *testEnv {
	t.Helper()
	v, err := auth.NewValidator("test-secret", "vidtube")
	require.NoError(t, err)

	e := &testEnv{
		t:       t,
		repo:    memstore.New(),
		auth:    v,
		metrics: observability.NewCollector("test"),
	}
	e.handler = NewRouter(Deps{
		Repo:      e.repo,
		Validator: v,
		Limiter:   ratelimit.NewLocal(perMinute),
		Metrics:   e.metrics,
		Logger:    zap.NewNop(),
		Config: config.Config{
			StoreDriver:      config.DriverMemory,
			MaxBodyBytes:     1 << 20,
			MuxWebhookSecret: webhookSecret,
			WebhookTolerance: 5 * time.Minute,
			CORSOrigins:      []string{"http://localhost:3000"},
		},
	})
	return e
}

func (e *testEnv) token(userID string) string {
	e.t.Helper()
	tok, err := e.auth.Sign(auth.Claims{UserID: userID, Name: userID}, time.Hour)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) user(id string) {
	e.t.Helper()
	_, err := e.repo.UpsertUser(context.Background(), store.User{ID: id, Name: id})
	require.NoError(e.t, err)
}

func (e *testEnv) publicVideo(ownerID, title string) string {
	e.t.Helper()
	ctx := context.Background()
	v, err := e.repo.CreateVideo(ctx, store.NewVideo{UserID: ownerID, Title: title})
	require.NoError(e.t, err)
	public := store.VisibilityPublic
	_, err = e.repo.UpdateVideo(ctx, ownerID, v.ID, store.VideoUpdate{Visibility: &public})
	require.NoError(e.t, err)
	return v.ID
}

type videoPage struct {
	Items      []store.VideoRow `json:"items"`
	NextCursor *string          `json:"nextCursor"`
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[util.ErrorResponse](t, rec).Error.Code
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, 60)
	rec := e.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])
}

func TestListVideos_PagesThroughCursor(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	for i := 0; i < 25; i++ {
		e.publicVideo("creator", fmt.Sprintf("video %d", i))
	}

	seen := map[string]bool{}
	var sizes []int
	path := "/v1/videos?limit=10"
	for {
		rec := e.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		page := decodeBody[videoPage](t, rec)
		sizes = append(sizes, len(page.Items))
		for _, v := range page.Items {
			assert.False(t, seen[v.ID], "duplicate %s", v.ID)
			seen[v.ID] = true
			assert.Equal(t, "creator", v.User.ID)
		}
		if page.NextCursor == nil {
			break
		}
		path = "/v1/videos?limit=10&cursor=" + *page.NextCursor
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Len(t, seen, 25)
}

func TestListVideos_RejectsBadPaging(t *testing.T) {
	e := newTestEnv(t, 60)
	for _, q := range []string{"limit=0", "limit=101", "limit=ten", "cursor=!!!", "cursor=bm90LWpzb24"} {
		rec := e.do(http.MethodGet, "/v1/videos?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, util.CodeBadRequest, errorCode(t, rec), q)
	}

	rec := e.do(http.MethodGet, "/v1/videos?categoryId=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListVideos_ForgedCursorIsBadRequest(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	e.publicVideo("creator", "clip")
	tok := e.token("creator")

	forged := store.Cursor{ID: "not-a-uuid", UpdatedAt: time.Now()}.Encode()
	for _, path := range []string{
		"/v1/videos?cursor=" + forged,
		"/v1/search?cursor=" + forged,
		"/v1/playlists/history?cursor=" + forged,
	} {
		rec := e.do(http.MethodGet, path, tok, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, util.CodeBadRequest, errorCode(t, rec), path)
	}

	// Subscriptions are keyed by user id, which is not a UUID.
	rec := e.do(http.MethodGet, "/v1/subscriptions?cursor="+store.Cursor{ID: "creator", UpdatedAt: time.Now()}.Encode(), tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListVideos_EmptyPageHasNoCursor(t *testing.T) {
	e := newTestEnv(t, 60)
	rec := e.do(http.MethodGet, "/v1/videos", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, rec.Body.String())
}

func TestProtectedRoutes_RequireViewer(t *testing.T) {
	e := newTestEnv(t, 60)
	for _, path := range []string{"/v1/videos/subscribed", "/v1/subscriptions", "/v1/studio/videos", "/v1/playlists/history"} {
		rec := e.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, util.CodeUnauthorized, errorCode(t, rec), path)
	}

	rec := e.do(http.MethodGet, "/v1/videos", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetVideo_NotFound(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	ctx := context.Background()
	private, err := e.repo.CreateVideo(ctx, store.NewVideo{UserID: "creator", Title: "draft"})
	require.NoError(t, err)

	for _, id := range []string{uuid.NewString(), "not-a-uuid", private.ID} {
		rec := e.do(http.MethodGet, "/v1/videos/"+id, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}

	rec := e.do(http.MethodGet, "/v1/videos/"+private.ID, e.token("creator"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVideoReaction_ViewerScoped(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	e.user("alice")
	id := e.publicVideo("creator", "clip")
	alice := e.token("alice")

	rec := e.do(http.MethodPost, "/v1/videos/"+id+"/reactions", alice, map[string]string{"type": "like"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"viewerReaction":"like"}`, rec.Body.String())

	detail := decodeBody[store.VideoDetail](t, e.do(http.MethodGet, "/v1/videos/"+id, alice, nil))
	assert.EqualValues(t, 1, detail.LikeCount)
	require.NotNil(t, detail.ViewerReaction)
	assert.Equal(t, store.ReactionLike, *detail.ViewerReaction)

	anon := decodeBody[store.VideoDetail](t, e.do(http.MethodGet, "/v1/videos/"+id, "", nil))
	assert.EqualValues(t, 1, anon.LikeCount)
	assert.Nil(t, anon.ViewerReaction)

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/reactions", alice, map[string]string{"type": "like"})
	assert.JSONEq(t, `{"viewerReaction":null}`, rec.Body.String())

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/reactions", alice, map[string]string{"type": "love"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComments_ReplyDepth(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	e.user("alice")
	id := e.publicVideo("creator", "clip")
	alice := e.token("alice")

	rec := e.do(http.MethodPost, "/v1/videos/"+id+"/comments", alice, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	root := decodeBody[store.Comment](t, rec)

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/comments", alice, map[string]any{"content": "reply", "parentId": root.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	reply := decodeBody[store.Comment](t, rec)

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/comments", alice, map[string]any{"content": "deeper", "parentId": reply.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/comments", alice, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	page := decodeBody[store.CommentPage](t, e.do(http.MethodGet, "/v1/videos/"+id+"/comments", "", nil))
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Items[0].RepliesCount)
	assert.EqualValues(t, 2, page.TotalCount)

	replies := decodeBody[store.CommentPage](t, e.do(http.MethodGet, "/v1/videos/"+id+"/comments?parentId="+root.ID, "", nil))
	require.Len(t, replies.Items, 1)
	assert.Equal(t, reply.ID, replies.Items[0].ID)
}

func TestSubscriptions(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	e.user("alice")
	alice := e.token("alice")

	rec := e.do(http.MethodPut, "/v1/subscriptions/alice", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPut, "/v1/subscriptions/creator", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decodeBody[store.UserProfile](t, e.do(http.MethodGet, "/v1/users/creator", alice, nil))
	assert.True(t, profile.ViewerSubscribed)
	assert.EqualValues(t, 1, profile.SubscriberCount)

	rec = e.do(http.MethodGet, "/v1/subscriptions", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"creatorId":"creator"`)

	rec = e.do(http.MethodDelete, "/v1/subscriptions/creator", alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodGet, "/v1/users/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaylists(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	e.user("alice")
	id := e.publicVideo("creator", "clip")
	alice := e.token("alice")

	rec := e.do(http.MethodPost, "/v1/playlists", alice, map[string]string{"name": "watch later"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pl := decodeBody[store.Playlist](t, rec)

	rec = e.do(http.MethodPut, "/v1/playlists/"+pl.ID+"/videos/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodPut, "/v1/playlists/"+pl.ID+"/videos/"+id, alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodGet, "/v1/playlists?videoId="+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"containsVideo":true`)

	videos := decodeBody[videoPage](t, e.do(http.MethodGet, "/v1/playlists/"+pl.ID+"/videos", alice, nil))
	require.Len(t, videos.Items, 1)
	assert.Equal(t, id, videos.Items[0].ID)

	rec = e.do(http.MethodGet, "/v1/playlists/"+pl.ID, e.token("creator"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodPost, "/v1/videos/"+id+"/views", alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	history := decodeBody[videoPage](t, e.do(http.MethodGet, "/v1/playlists/history", alice, nil))
	require.Len(t, history.Items, 1)
	assert.EqualValues(t, 1, history.Items[0].ViewCount)
}

func TestStudio_CreateAndUpdate(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	tok := e.token("creator")

	rec := e.do(http.MethodPost, "/v1/videos", tok, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decodeBody[store.Video](t, rec)
	assert.Equal(t, "Untitled", v.Title)
	assert.Equal(t, store.VisibilityPrivate, v.Visibility)

	rec = e.do(http.MethodPatch, "/v1/videos/"+v.ID, tok, map[string]string{"visibility": "hidden"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPatch, "/v1/videos/"+v.ID, tok, map[string]string{"title": "Final", "visibility": "public"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Final", decodeBody[store.Video](t, rec).Title)

	rec = e.do(http.MethodPatch, "/v1/videos/"+v.ID, e.token("someone"), map[string]string{"title": "mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	studio := decodeBody[videoPage](t, e.do(http.MethodGet, "/v1/studio/videos", tok, nil))
	require.Len(t, studio.Items, 1)

	rec = e.do(http.MethodDelete, "/v1/videos/"+v.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodGet, "/v1/studio/videos/"+v.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostMe_ProvisionsViewer(t *testing.T) {
	e := newTestEnv(t, 60)
	tok, err := e.auth.Sign(auth.Claims{UserID: "u1", Name: "Uma", Picture: "https://img/u1.png"}, time.Hour)
	require.NoError(t, err)

	rec := e.do(http.MethodPost, "/v1/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decodeBody[store.User](t, rec)
	assert.Equal(t, "Uma", u.Name)
	require.NotNil(t, u.ImageURL)
	assert.Equal(t, "https://img/u1.png", *u.ImageURL)
}

func TestMutations_RateLimited(t *testing.T) {
	e := newTestEnv(t, 2)
	e.user("creator")
	e.user("alice")
	alice := e.token("alice")

	for i := 0; i < 2; i++ {
		rec := e.do(http.MethodPut, "/v1/subscriptions/creator", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := e.do(http.MethodPut, "/v1/subscriptions/creator", alice, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RateLimited.WithLabelValues("/v1/subscriptions/{userID}")))

	// Reads are not limited.
	rec = e.do(http.MethodGet, "/v1/subscriptions", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func (e *testEnv) webhook(body []byte, signed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/video", bytes.NewReader(body))
	if signed {
		req.Header.Set(SignatureHeader, pipeline.Sign(webhookSecret, body, time.Now()))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestVideoWebhook(t *testing.T) {
	e := newTestEnv(t, 60)
	e.user("creator")
	upload := "upload-1"
	v, err := e.repo.CreateVideo(context.Background(), store.NewVideo{UserID: "creator", Title: "clip", MuxUploadID: &upload})
	require.NoError(t, err)

	ready := []byte(`{"type":"video.asset.ready","data":{"id":"asset-1","upload_id":"upload-1","status":"ready","duration":3.5,"playback_ids":[{"id":"pb-1"}]}}`)

	rec := e.webhook(ready, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.webhook(ready, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"applied"}`, rec.Body.String())

	got, err := e.repo.GetStudioVideo(context.Background(), "creator", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "pb-1", *got.MuxPlaybackID)
	assert.Equal(t, 3500, got.DurationMS)

	rec = e.webhook([]byte(`{"type":"video.asset.created","data":{"status":"preparing"}}`), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.webhook([]byte(`{"type":"video.upload.created","data":{}}`), true)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.WebhookEvents.WithLabelValues("video.asset.ready", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.WebhookEvents.WithLabelValues("unknown", "rejected")))
}
