package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dpxrk/pactwise-memory/internal/engine"
	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// APIHandlers contains the HTTP handlers for the memory REST API.
type APIHandlers struct {
	shortTerm    *engine.ShortTermService
	longTerm     *engine.LongTermService
	consolidator *engine.Consolidator
	hub          broadcaster
}

// NewAPIHandlers creates an APIHandlers instance. hub may be nil when the
// activity feed is disabled.
func NewAPIHandlers(shortTerm *engine.ShortTermService, longTerm *engine.LongTermService, consolidator *engine.Consolidator, hub *WebSocketHub) *APIHandlers {
	h := &APIHandlers{
		shortTerm:    shortTerm,
		longTerm:     longTerm,
		consolidator: consolidator,
	}
	if hub != nil {
		h.hub = hub
	}
	return h
}

// StoreShortTerm handles POST /api/memories/short-term.
func (h *APIHandlers) StoreShortTerm(w http.ResponseWriter, r *http.Request) {
	var in types.ShortTermInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	actor := ActorFromRequest(r)
	id, err := h.shortTerm.Store(r.Context(), actor, in)
	if err != nil {
		respondEngineError(w, "failed to store memory", err)
		return
	}

	publish(h.hub, ActivityEvent{Type: EventShortTermStored, MemoryID: id, UserID: actor.UserID})
	respondJSON(w, http.StatusCreated, StoreResponse{ID: id})
}

// GetSessionMemories handles GET /api/memories/short-term/session/{session_id}.
func (h *APIHandlers) GetSessionMemories(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session ID is required", nil)
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 0)

	memories, err := h.shortTerm.GetSessionMemories(r.Context(), ActorFromRequest(r), sessionID, limit)
	if err != nil {
		respondEngineError(w, "failed to list session memories", err)
		return
	}
	respondJSON(w, http.StatusOK, ShortTermListResponse{Memories: memories, Total: len(memories)})
}

// GetRecentMemories handles GET /api/memories/short-term.
func (h *APIHandlers) GetRecentMemories(w http.ResponseWriter, r *http.Request) {
	minImportance, ok := parseImportance(r.URL.Query().Get("min_importance"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid min_importance value", nil)
		return
	}

	q := storage.RecentQuery{
		Types:         parseTypes(r.URL.Query().Get("types")),
		MinImportance: minImportance,
		Limit:         parseInt(r.URL.Query().Get("limit"), 0),
	}

	memories, err := h.shortTerm.GetRecentMemories(r.Context(), ActorFromRequest(r), q)
	if err != nil {
		respondEngineError(w, "failed to list recent memories", err)
		return
	}
	respondJSON(w, http.StatusOK, ShortTermListResponse{Memories: memories, Total: len(memories)})
}

// SearchShortTerm handles GET /api/memories/short-term/search.
func (h *APIHandlers) SearchShortTerm(w http.ResponseWriter, r *http.Request) {
	q := storage.SearchQuery{
		Query:     r.URL.Query().Get("q"),
		SessionID: r.URL.Query().Get("session_id"),
		Limit:     parseInt(r.URL.Query().Get("limit"), 0),
	}

	memories, err := h.shortTerm.SearchMemories(r.Context(), ActorFromRequest(r), q)
	if err != nil {
		respondEngineError(w, "search failed", err)
		return
	}
	respondJSON(w, http.StatusOK, ShortTermListResponse{Memories: memories, Total: len(memories)})
}

// MarkForConsolidation handles POST /api/memories/short-term/consolidate.
func (h *APIHandlers) MarkForConsolidation(w http.ResponseWriter, r *http.Request) {
	var req MarkConsolidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "at least one memory ID is required", nil)
		return
	}

	if err := h.shortTerm.MarkForConsolidation(r.Context(), ActorFromRequest(r), req.IDs); err != nil {
		respondEngineError(w, "failed to flag memories", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StoreLongTerm handles POST /api/memories/long-term.
func (h *APIHandlers) StoreLongTerm(w http.ResponseWriter, r *http.Request) {
	var in types.LongTermInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	actor := ActorFromRequest(r)
	id, err := h.longTerm.Store(r.Context(), actor, in)
	if err != nil {
		respondEngineError(w, "failed to store memory", err)
		return
	}

	publish(h.hub, ActivityEvent{Type: EventLongTermStored, MemoryID: id, UserID: actor.UserID})
	respondJSON(w, http.StatusCreated, StoreResponse{ID: id})
}

// GetLongTermMemories handles GET /api/memories/long-term.
func (h *APIHandlers) GetLongTermMemories(w http.ResponseWriter, r *http.Request) {
	minImportance, ok := parseImportance(r.URL.Query().Get("min_importance"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid min_importance value", nil)
		return
	}

	q := storage.ListQuery{
		Types:         parseTypes(r.URL.Query().Get("types")),
		MinImportance: minImportance,
		MinStrength:   parseFloat(r.URL.Query().Get("min_strength"), 0),
		Limit:         parseInt(r.URL.Query().Get("limit"), 0),
	}

	memories, err := h.longTerm.GetMemories(r.Context(), ActorFromRequest(r), q)
	if err != nil {
		respondEngineError(w, "failed to list memories", err)
		return
	}
	respondJSON(w, http.StatusOK, LongTermListResponse{Memories: memories, Total: len(memories)})
}

// SearchLongTerm handles GET /api/memories/long-term/search.
func (h *APIHandlers) SearchLongTerm(w http.ResponseWriter, r *http.Request) {
	q := storage.SearchQuery{
		Query: r.URL.Query().Get("q"),
		Types: parseTypes(r.URL.Query().Get("types")),
		Limit: parseInt(r.URL.Query().Get("limit"), 0),
	}

	results, err := h.longTerm.SearchMemories(r.Context(), ActorFromRequest(r), q)
	if err != nil {
		respondEngineError(w, "search failed", err)
		return
	}

	items := make([]SearchResultItem, 0, len(results))
	for _, res := range results {
		items = append(items, SearchResultItem{Memory: res.Memory, Score: res.Score})
	}
	respondJSON(w, http.StatusOK, LongTermSearchResponse{Results: items, Total: len(items), Query: q.Query})
}

// ReinforceMemory handles POST /api/memories/long-term/{id}/reinforce.
func (h *APIHandlers) ReinforceMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	var req ReinforceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "failed to parse request body", err)
			return
		}
	}

	actor := ActorFromRequest(r)
	m, err := h.longTerm.ReinforceMemory(r.Context(), actor, id, req.Delta)
	if err != nil {
		respondEngineError(w, "failed to reinforce memory", err)
		return
	}

	publish(h.hub, ActivityEvent{Type: EventReinforced, MemoryID: id, UserID: actor.UserID})
	respondJSON(w, http.StatusOK, m)
}

// VerifyMemory handles POST /api/memories/long-term/{id}/verify.
func (h *APIHandlers) VerifyMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	actor := ActorFromRequest(r)
	m, err := h.longTerm.VerifyMemory(r.Context(), actor, id)
	if err != nil {
		respondEngineError(w, "failed to verify memory", err)
		return
	}

	publish(h.hub, ActivityEvent{Type: EventVerified, MemoryID: id, UserID: actor.UserID})
	respondJSON(w, http.StatusOK, m)
}

// GetRelatedMemories handles GET /api/memories/long-term/{id}/related.
func (h *APIHandlers) GetRelatedMemories(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 0)

	memories, err := h.longTerm.GetRelatedMemories(r.Context(), ActorFromRequest(r), id, limit)
	if err != nil {
		respondEngineError(w, "failed to list related memories", err)
		return
	}
	respondJSON(w, http.StatusOK, LongTermListResponse{Memories: memories, Total: len(memories)})
}

// RunConsolidation handles POST /api/consolidation/run. It promotes the
// caller's pending short-term memories immediately instead of waiting for the
// background pass.
func (h *APIHandlers) RunConsolidation(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromRequest(r)
	promoted, err := h.consolidator.Run(r.Context(), actor, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		respondEngineError(w, "consolidation failed", err)
		return
	}

	publish(h.hub, ActivityEvent{Type: EventConsolidated, UserID: actor.UserID, Count: promoted})
	respondJSON(w, http.StatusOK, ConsolidationRunResponse{Promoted: promoted, RanAt: time.Now()})
}

// Helper functions

// parseTypes splits a comma-separated memory type list.
func parseTypes(s string) []types.MemoryType {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]types.MemoryType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, types.MemoryType(p))
		}
	}
	return out
}

// parseImportance parses an optional min_importance query value. Empty means
// no filter; anything else must be a member of the importance set.
func parseImportance(s string) (types.ImportanceLevel, bool) {
	if s == "" {
		return "", true
	}
	level := types.ImportanceLevel(s)
	return level, types.IsValidImportance(level)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// parseFloat parses a float from a string, returning defaultValue if parsing fails.
func parseFloat(s string, defaultValue float64) float64 {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to do.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}

// respondEngineError maps engine errors onto HTTP status codes.
func respondEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, engine.ErrAuthenticationRequired):
		respondError(w, http.StatusUnauthorized, "authentication required", err)
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "memory not found", err)
	case errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}
