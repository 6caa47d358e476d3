package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidtube/api/internal/pipeline"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/internal/util"
)

// writeStoreError maps store and pipeline errors onto the error envelope.
// Anything unrecognised is logged and reported without its cause.
func (h *handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidLimit),
		errors.Is(err, store.ErrInvalidCursor),
		errors.Is(err, store.ErrInvalidParent),
		errors.Is(err, store.ErrSelfSubscription),
		errors.Is(err, pipeline.ErrMissingID),
		errors.Is(err, pipeline.ErrMalformedEvent):
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, err.Error())
	case errors.Is(err, store.ErrAnonymous):
		util.WriteError(w, http.StatusUnauthorized, util.CodeUnauthorized, err.Error())
	case errors.Is(err, store.ErrNotFound):
		util.WriteError(w, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		util.WriteError(w, http.StatusConflict, util.CodeConflict, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("route", routePattern(r)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		util.WriteError(w, http.StatusInternalServerError, util.CodeInternal, "internal server error")
	}
}

// decode reads a JSON body of at most maxBody bytes into v and validates it.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "body too large")
			return false
		}
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := util.ValidateStruct(v); err != nil {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, err.Error())
		return false
	}
	return true
}

// pathUUID returns the canonical form of a UUID path parameter. Anything that
// is not a UUID cannot name a row, so it is reported as not found.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		util.WriteError(w, http.StatusNotFound, util.CodeNotFound, name+" not found")
		return "", false
	}
	return id.String(), true
}

// queryUUID returns the canonical form of an optional UUID query parameter.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return "", true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, name+" must be a UUID")
		return "", false
	}
	return id.String(), true
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) (store.PageRequest, bool) {
	p, err := util.ParsePage(r)
	if err != nil {
		h.writeStoreError(w, r, err)
		return store.PageRequest{}, false
	}
	return p, true
}

// writePage writes a page and records its size.
func writePage[T any](h *handlers, w http.ResponseWriter, r *http.Request, p store.Page[T], err error) {
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	h.metrics.PageItems.WithLabelValues(routePattern(r)).Observe(float64(len(p.Items)))
	util.WriteJSON(w, http.StatusOK, p)
}

func (h *handlers) writeResult(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	util.WriteJSON(w, status, v)
}
