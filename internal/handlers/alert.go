package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pjscruggs/slogcp"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
)

// HandleAlert receives a Loggly alert webhook.
// POST /alert
//
// Every decodable alert is answered with 200 OK, whatever happens downstream.
func (h *Handlers) HandleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := slogcp.Logger(ctx)

	body, err := h.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "Alert body too large", "limit_bytes", h.maxBodyBytes)
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.ErrorContext(ctx, "Failed to read alert body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	env, err := events.DecodeEnvelope(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to decode alert body", "error", err, "bytes", len(body))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	invocationID := h.newID()
	logger = logger.With("invocation_id", invocationID)
	logger.DebugContext(ctx, "Received alert body", "body", string(body))

	h.processor.ProcessAlert(slogcp.ContextWithLogger(ctx, logger), invocationID, env)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Invocation-Id", invocationID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readBody reads the request body, transparently inflating gzip content. The limit
// applies to both the wire bytes and the inflated bytes.
func (h *Handlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var body io.Reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, h.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxBodyBytes {
		return nil, &http.MaxBytesError{Limit: h.maxBodyBytes}
	}
	return data, nil
}
