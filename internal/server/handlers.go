package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/logging"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/service"
	"github.com/agbru/megacalc/pkg/models"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().Unix(),
	})
}

// handleRun computes the requested value under the configured limits.
//
// Query parameters: kind (fib, fact or prime), exactly one of index or
// digits, and optionally strict=true and value=false to omit the decimal
// value from the response.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	req, ok := s.parseOrReject(w, r)
	if !ok {
		return
	}
	withValue := r.URL.Query().Get("value") != "false"

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	res, err := s.service.Run(ctx, req, s.cfg.ToLimits())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	doc := service.ResultDocument(req, res, withValue)
	doc.RequestID = RequestIDFrom(r.Context())
	s.writeJSONResponse(w, http.StatusOK, doc)
}

// handleEstimate forecasts the run time of a request without running it.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	req, ok := s.parseOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	est, err := s.service.Estimate(ctx, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	doc := service.EstimateDocument(req, est, s.cfg.Timeout)
	doc.RequestID = RequestIDFrom(r.Context())
	s.writeJSONResponse(w, http.StatusOK, doc)
}

func (s *Server) parseOrReject(w http.ResponseWriter, r *http.Request) (sequence.Request, bool) {
	req, err := parseRequestParams(r)
	if err != nil {
		var parseErr RequestParseError
		if errors.As(err, &parseErr) {
			s.writeErrorResponse(w, r, parseErr.StatusCode, "invalid", parseErr.Message)
		} else {
			s.writeErrorResponse(w, r, http.StatusBadRequest, "invalid", err.Error())
		}
		return sequence.Request{}, false
	}
	if req.Target > s.securityConfig.MaxTarget {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "invalid",
			fmt.Sprintf("Target %d exceeds the maximum allowed (%d). This limit prevents resource exhaustion.",
				req.Target, s.securityConfig.MaxTarget))
		return sequence.Request{}, false
	}
	return req, true
}

// parseRequestParams extracts and validates the calculation request.
//
// Parameters:
//   - r: The HTTP request containing query parameters.
//
// Returns:
//   - sequence.Request: The validated request.
//   - error: A RequestParseError for malformed numbers, or the InputError of
//     sequence.ParseKind and sequence.NewRequest.
func parseRequestParams(r *http.Request) (sequence.Request, error) {
	q := r.URL.Query()
	if q.Get("kind") == "" {
		return sequence.Request{}, RequestParseError{Message: "Missing 'kind' parameter", StatusCode: http.StatusBadRequest}
	}
	kind, err := sequence.ParseKind(q.Get("kind"))
	if err != nil {
		return sequence.Request{}, err
	}

	index, err := optionalInt(q.Get("index"), "index")
	if err != nil {
		return sequence.Request{}, err
	}
	digits, err := optionalInt(q.Get("digits"), "digits")
	if err != nil {
		return sequence.Request{}, err
	}

	strict := false
	if v := q.Get("strict"); v != "" {
		if strict, err = strconv.ParseBool(v); err != nil {
			return sequence.Request{}, RequestParseError{Message: "Invalid 'strict' parameter: must be a boolean", StatusCode: http.StatusBadRequest}
		}
	}
	return sequence.NewRequest(kind, index, digits, strict)
}

func optionalInt(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, RequestParseError{
			Message:    fmt.Sprintf("Invalid '%s' parameter: must be an integer", name),
			StatusCode: http.StatusBadRequest,
		}
	}
	return &v, nil
}

// statusCode maps a service.Status label to an HTTP status.
func statusCode(status string) int {
	switch status {
	case "invalid":
		return http.StatusBadRequest
	case "too_large":
		return http.StatusUnprocessableEntity
	case "timeout":
		return http.StatusGatewayTimeout
	case "memory", "canceled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := service.Status(err)
	code := statusCode(status)
	if code >= http.StatusInternalServerError && !apperrors.IsContextError(err) {
		s.logger.Error("request failed", err,
			logging.String("request_id", RequestIDFrom(r.Context())),
			logging.String("status", status),
		)
	}
	s.writeErrorResponse(w, r, code, status, err.Error())
}

// writeJSONResponse writes data as JSON with the correct content type.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - data: The data to be encoded as JSON.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a models.ErrorResponse.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The request, for its request ID.
//   - statusCode: The HTTP status code to write.
//   - code: The short error code, e.g. "invalid" or "timeout".
//   - message: The error message to be included in the response body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	})
}
