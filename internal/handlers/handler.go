package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Rahat-ch/moltymingle/internal/ai"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store        store.DataStore
	logger       zerolog.Logger
	swipeCeiling int

	// Generators may be nil; handlers then use the defined fallbacks.
	personas ai.PersonaGenerator
	avatars  ai.AvatarGenerator
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(st store.DataStore, logger zerolog.Logger, swipeCeiling int, personas ai.PersonaGenerator, avatars ai.AvatarGenerator) *Handler {
	return &Handler{
		store:        st,
		logger:       logger,
		swipeCeiling: swipeCeiling,
		personas:     personas,
		avatars:      avatars,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a structured JSON error response.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// storageError logs a store failure and returns a generic 500 without
// internal detail.
func (h *Handler) storageError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("storage error")
	h.Error(w, http.StatusInternalServerError, "something went wrong")
}

// queryInt parses an integer query parameter, clamping to [1, max] and
// substituting def on absence or garbage.
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
