package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hession/culinai/internal/recipe"
)

// Error codes returned in ErrorResponse
const (
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
)

const maxRequestBody = 64 << 10

// ErrorResponse is the body of every non-recipe error
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// RecipeResponse carries the tool output. Result is the same text an agent
// would receive; Code is set when the lookup failed.
type RecipeResponse struct {
	Result    string `json:"result"`
	OK        bool   `json:"ok"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", false, nil)
		return
	}
	if !s.isReady() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now().UTC(),
			Reason:    "server is not accepting traffic",
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Timestamp: time.Now().UTC()})
}

// handleRecipe handles POST /v1/recipe
func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", false, nil)
		return
	}

	var in recipe.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			"request body must be a JSON object", false, map[string]any{"error": err.Error()})
		return
	}

	res := s.resolver.ResolveInput(r.Context(), in, s.config.DefaultMode)

	resp := RecipeResponse{
		Result:    res.String(),
		OK:        res.OK(),
		RequestID: requestIDFrom(r.Context()),
	}
	if res.Err != nil {
		resp.Code = string(res.Err.Code)
	}
	writeJSON(w, statusFor(res), resp)
}

// statusFor maps a resolution outcome to an HTTP status
func statusFor(res recipe.Result) int {
	if res.Err == nil {
		return http.StatusOK
	}
	switch res.Err.Code {
	case recipe.ErrCodeValidation:
		return http.StatusBadRequest
	case recipe.ErrCodeNotFound:
		return http.StatusNotFound
	case recipe.ErrCodeConfiguration:
		return http.StatusServiceUnavailable
	case recipe.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	code, message string, retryable bool, details map[string]any) {

	requestID := requestIDFrom(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	writeJSON(w, statusCode, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
