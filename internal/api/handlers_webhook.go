package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/pipeline"
	"github.com/vidtube/api/internal/util"
)

// SignatureHeader carries the pipeline provider's HMAC of the request body.
const SignatureHeader = "Mux-Signature"

func (h *handlers) PostVideoWebhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MuxWebhookSecret == "" {
		h.logger.Error("video webhook received but no signing secret is configured")
		util.WriteError(w, http.StatusInternalServerError, util.CodeInternal, "webhook not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "body read error or too large")
		return
	}

	if err := pipeline.Verify(r.Header.Get(SignatureHeader), body, h.cfg.MuxWebhookSecret, h.cfg.WebhookTolerance, h.now()); err != nil {
		h.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		h.logger.Warn("rejected video webhook", zap.Error(err))
		util.WriteError(w, http.StatusUnauthorized, util.CodeUnauthorized, err.Error())
		return
	}

	var ev pipeline.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "invalid JSON: "+err.Error())
		return
	}

	outcome, err := h.applier.Apply(r.Context(), ev)
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingID) || errors.Is(err, pipeline.ErrMalformedEvent) {
			h.metrics.WebhookEvents.WithLabelValues(ev.Type, "invalid").Inc()
		} else {
			h.metrics.WebhookEvents.WithLabelValues(ev.Type, "failed").Inc()
		}
		h.writeStoreError(w, r, err)
		return
	}
	h.metrics.WebhookEvents.WithLabelValues(ev.Type, outcome).Inc()
	util.WriteJSON(w, http.StatusOK, map[string]string{"status": outcome})
}
