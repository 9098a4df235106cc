package httputils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/constants"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
)

const (
	CorrelationIDHeader = "X-Correlation-Id"

	// MaxBodyBytes caps request bodies; a 2048-char URL plus alias and expiry fit easily.
	MaxBodyBytes = 16 << 10
)

// APIResponse is the envelope every link endpoint answers with.
type APIResponse struct {
	ResponseTime  time.Time `json:"responseTime" example:"2024-01-15T10:30:00Z"`
	CorrelationId string    `json:"correlationId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Code          string    `json:"code,omitempty" example:"LINK_CREATED"`
	Data          any       `json:"data,omitempty"`
	Error         string    `json:"error,omitempty" example:"INVALID_URL"`
	Message       string    `json:"message,omitempty" example:"Link not found"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

// GetCorrelationID returns the caller's X-Correlation-Id, or a fresh UUID v4.
func GetCorrelationID(r *http.Request) string {
	if id := r.Header.Get(CorrelationIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr constants.APIError) {
	writeEnvelope(w, r, apiErr.Status, APIResponse{
		Error:   apiErr.Code,
		Message: apiErr.Message,
	})
}

func WriteAPISuccess(w http.ResponseWriter, r *http.Request, apiSuccess constants.APISuccess, data any) {
	writeEnvelope(w, r, apiSuccess.Status, APIResponse{
		Code: apiSuccess.Code,
		Data: data,
	})
}

// RespondJSON writes a bare {"data": ...} body for endpoints outside the envelope, like /health.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	encode(w, status, SuccessResponse{Data: data})
}

// DecodeJSON reads a single JSON value from the body into dst, rejecting
// bodies over MaxBodyBytes and trailing garbage.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp APIResponse) {
	resp.CorrelationId = GetCorrelationID(r)
	resp.ResponseTime = time.Now().UTC()

	w.Header().Set(CorrelationIDHeader, resp.CorrelationId)
	encode(w, status, resp)
}

func encode(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode json response", zap.Error(err))
	}
}
