package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/registry"
	"github.com/gyeh/npi-validator/internal/validation"
)

const maxBodyBytes = 64 << 10

// BatchRunner validates a batch of NPIs.
type BatchRunner interface {
	ValidateBatch(ctx context.Context, npis []string, opts validation.BatchOptions) (*validation.BatchResult, error)
}

// APIHandlers exposes the validation endpoints.
type APIHandlers struct {
	logger      *slog.Logger
	single      validation.Validator
	batch       BatchRunner
	concurrency int
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, single validation.Validator, batch BatchRunner, concurrency int) *APIHandlers {
	return &APIHandlers{
		logger:      logger,
		single:      single,
		batch:       batch,
		concurrency: concurrency,
	}
}

type validateRequest struct {
	NPI string `json:"npi"`
}

type batchRequest struct {
	NPIs []string `json:"npis"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *APIHandlers) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.single.ValidateOne(r.Context(), req.NPI)
	if err != nil {
		h.logger.Error("registry lookup failed", "npi", req.NPI, "error", err)
		respondJSON(w, http.StatusBadGateway, errorResponse{
			Error:     err.Error(),
			Retryable: registry.IsRetryable(err),
		})
		return
	}

	respondJSON(w, statusFor(result), result)
}

func (h *APIHandlers) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.batch.ValidateBatch(r.Context(), req.NPIs, validation.BatchOptions{Concurrency: h.concurrency})
	switch {
	case errors.Is(err, validation.ErrEmptyBatch), errors.Is(err, validation.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("batch validation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "batch validation failed")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// statusFor maps a single result to its HTTP status. Unknown NPIs are 404;
// every other invalid result is a client error.
func statusFor(r npi.ValidationResult) int {
	switch {
	case r.Status != npi.StatusInvalid:
		return http.StatusOK
	case r.Reason == npi.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}
