package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/siteglance/ingest-gw/internal/event"
	"github.com/siteglance/ingest-gw/internal/metrics"
	"github.com/siteglance/ingest-gw/internal/payload"
	"github.com/siteglance/ingest-gw/internal/signature"
	"github.com/siteglance/ingest-gw/internal/storage"
)

// handleIngest terminates one webhook delivery.
//
// The body is read exactly once and the signature is verified over those raw
// bytes before any JSON parsing: nothing in the request is trusted, or even
// decoded, until the sender is authenticated.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body", "")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusPayloadTooLarge).Inc()
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large", CodePayloadTooLarge)
		return
	}

	provided := r.Header.Get(s.config.SignatureHeader)
	switch err := signature.Verify(body, provided, s.config.Secret); {
	case errors.Is(err, signature.ErrMissingSecret):
		// Server-side misconfiguration. Fail closed and say so; a silent
		// bypass here would accept forged deliveries.
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusMisconfigured).Inc()
		s.logger.Error("webhook secret is not configured; rejecting delivery")
		s.respondError(w, http.StatusInternalServerError, "webhook secret is not configured", CodeMissingSecret)
		return
	case errors.Is(err, signature.ErrMissingSignature):
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusUnauthorized).Inc()
		s.respondError(w, http.StatusUnauthorized, "signature header is missing", CodeMissingSignature)
		return
	case err != nil:
		// Possible forged delivery; keep this visible for security review.
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusForbidden).Inc()
		s.logger.Warn("webhook signature verification failed",
			"remote_addr", r.RemoteAddr,
			"body_bytes", len(body),
		)
		s.respondError(w, http.StatusForbidden, "invalid signature", CodeInvalidSignature)
		return
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusBadRequest).Inc()
		s.respondError(w, http.StatusBadRequest, "request body is not valid JSON", CodeInvalidJSON)
		return
	}

	records := payload.Events(parsed)
	events := make([]event.Event, 0, len(records))
	dropped := 0
	for _, rec := range records {
		ev, ok := event.Normalize(rec)
		if !ok {
			// Data-quality drop, not a fault: the sender cannot act on a
			// single skipped record inside a large batch.
			dropped++
			continue
		}
		events = append(events, ev)
	}

	delivery := storage.Delivery{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		Received:   len(records),
		Processed:  len(events),
	}

	writeStart := time.Now()
	if err := s.store.IngestBatch(r.Context(), delivery, events); err != nil {
		metrics.DeliveriesTotal.WithLabelValues(metrics.StatusStoreError).Inc()
		s.logger.Error("bulk upsert failed",
			"delivery_id", delivery.ID,
			"events", len(events),
			"error", err,
		)
		s.respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to persist events",
			Code:    CodeStoreFailure,
			Details: err.Error(),
		})
		return
	}
	metrics.StoreWriteDuration.Observe(float64(time.Since(writeStart).Milliseconds()))

	metrics.DeliveriesTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.EventsProcessed.Add(float64(len(events)))
	metrics.EventsDropped.Add(float64(dropped))

	s.logger.Info("delivery processed",
		"delivery_id", delivery.ID,
		"received", delivery.Received,
		"processed", delivery.Processed,
		"dropped", dropped,
	)

	s.respondJSON(w, http.StatusOK, IngestResponse{Processed: len(events)})
}
