package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/envconform/internal/metrics"
	"github.com/eugenenazirov/envconform/internal/schemadef"
	"github.com/eugenenazirov/envconform/internal/storage"
	"github.com/eugenenazirov/envconform/pkg/conform"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires storage and metrics dependencies into HTTP handlers.
type Handler struct {
	storage storage.Storage
	metrics *metrics.Collector

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithConformMetrics records conform outcomes on the given collector.
func WithConformMetrics(collector *metrics.Collector) HandlerOption {
	return func(h *Handler) {
		h.metrics = collector
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	_ = r
	def, updatedAt, err := h.storage.GetSchema()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSchemaResponse(def, updatedAt, ""))
}

func (h *Handler) handlePutSchema(w http.ResponseWriter, r *http.Request) {
	var def schemadef.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if def.Len() == 0 {
		writeError(w, http.StatusBadRequest, "Invalid schema", "fields must contain at least one field")
		return
	}

	if err := h.storage.SetSchema(def); err != nil {
		if isDefinitionError(err) {
			writeError(w, http.StatusBadRequest, "Invalid schema", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	stored, updatedAt, err := h.storage.GetSchema()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSchemaResponse(stored, updatedAt, "Schema updated successfully"))
}

func (h *Handler) handleConform(w http.ResponseWriter, r *http.Request) {
	var req conformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	schema, err := h.resolveSchema(req.Fields)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNoSchema):
			h.metrics.ObserveConform(metrics.OutcomeNoSchema, nil)
			writeError(w, http.StatusConflict, "No schema configured", err.Error(),
				"Upload a schema with PUT /api/schema or pass fields in the request")
		case isDefinitionError(err):
			h.metrics.ObserveConform(outcomeFor(err), nil)
			writeError(w, http.StatusBadRequest, "Invalid schema", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	result, err := conform.Conform(req.environment(), schema)
	if err != nil {
		h.metrics.ObserveConform(outcomeFor(err), nil)
		writeError(w, http.StatusBadRequest, "Invalid schema", err.Error())
		return
	}

	h.metrics.ObserveConform(metrics.OutcomeOK, resultKinds(result))

	writeJSON(w, http.StatusOK, conformResponse{
		Values: result,
		Keys:   result.Len(),
	})
}

// resolveSchema builds the inline fields when present and falls back to the
// stored schema otherwise.
func (h *Handler) resolveSchema(fields []schemadef.Field) (*conform.Schema, error) {
	if fields == nil {
		return h.storage.Schema()
	}
	return schemadef.Definition{Fields: fields}.Build()
}

func isDefinitionError(err error) bool {
	return errors.Is(err, schemadef.ErrInvalidDefinition) ||
		errors.Is(err, conform.ErrInvalidDefault) ||
		errors.Is(err, conform.ErrUnknownKind) ||
		errors.Is(err, conform.ErrInvalidSchema)
}

func outcomeFor(err error) string {
	if errors.Is(err, conform.ErrInvalidDefault) {
		return metrics.OutcomeInvalidDefault
	}
	return metrics.OutcomeInvalidSchema
}

// resultKinds reports the converter kind of every value in result.
func resultKinds(result *conform.Result) []string {
	kinds := make([]string, 0, result.Len())
	for _, key := range result.Keys() {
		v, _ := result.Get(key)
		switch v.(type) {
		case bool:
			kinds = append(kinds, string(conform.KindBoolean))
		case string:
			kinds = append(kinds, string(conform.KindString))
		case int:
			kinds = append(kinds, string(conform.KindNumber))
		case []string:
			kinds = append(kinds, string(conform.KindArray))
		case map[string]string:
			kinds = append(kinds, string(conform.KindObject))
		default:
			kinds = append(kinds, "custom")
		}
	}
	return kinds
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type conformRequest struct {
	Environment map[string]*string `json:"environment"`
	Fields      []schemadef.Field  `json:"fields,omitempty"`
}

// environment drops null entries so they read as unset.
func (r conformRequest) environment() conform.Env {
	env := make(conform.Env, len(r.Environment))
	for key, value := range r.Environment {
		if value != nil {
			env[key] = *value
		}
	}
	return env
}

type conformResponse struct {
	Values *conform.Result `json:"values"`
	Keys   int             `json:"keys"`
}

type schemaResponse struct {
	Fields    []schemadef.Field `json:"fields"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Message   string            `json:"message,omitempty"`
}

func newSchemaResponse(def schemadef.Definition, updatedAt time.Time, message string) schemaResponse {
	fields := def.Fields
	if fields == nil {
		fields = []schemadef.Field{}
	}
	return schemaResponse{
		Fields:    fields,
		UpdatedAt: updatedAt,
		Message:   message,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
