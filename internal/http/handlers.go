package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/akotliarov/weather-favorites/internal/favorites"
	"github.com/akotliarov/weather-favorites/internal/models"
	"github.com/akotliarov/weather-favorites/internal/provider"
	"github.com/akotliarov/weather-favorites/internal/validation"
	"github.com/akotliarov/weather-favorites/internal/weather"
)

// shuttingDown is set on SIGTERM; health reports 503 while draining.
var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	orchestrator *weather.Orchestrator
	favorites    *favorites.Manager
	logger       *zap.Logger
	placeMaxLen  int
	// storePing, when set, is called to check KV store reachability.
	storePing func(ctx context.Context) error
}

// NewHandler returns a new Handler. storePing may be nil when the backend
// has no reachability check (in-memory).
func NewHandler(
	orchestrator *weather.Orchestrator,
	favs *favorites.Manager,
	logger *zap.Logger,
	placeMaxLen int,
	storePing func(ctx context.Context) error,
) *Handler {
	if placeMaxLen <= 0 {
		placeMaxLen = 80
	}
	return &Handler{
		orchestrator: orchestrator,
		favorites:    favs,
		logger:       logger,
		placeMaxLen:  placeMaxLen,
		storePing:    storePing,
	}
}

// weatherResponse is the single-place response envelope.
type weatherResponse struct {
	Source  string               `json:"source"`
	Weather *models.PlaceWeather `json:"weather"`
}

// GetWeather handles GET /weather/{place}: the on-demand, short-TTL lookup.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	place, err := validation.ValidatePlace(mux.Vars(r)["place"], h.placeMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PLACE", err.Error())
		return
	}

	result, err := h.orchestrator.Get(r.Context(), place, weather.OnDemand)
	if err != nil {
		h.writeWeatherError(w, r, place, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherResponse{Source: result.Source, Weather: result.Weather})
}

// GetFavorites handles GET /favorites: the session's favorites with weather,
// fetched with the proactive freshness class.
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	names := h.favorites.List(r.Context(), sess)
	rows := h.orchestrator.Batch(r.Context(), names)
	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": rows})
}

// GetFavoriteNames handles GET /favorites/names: place names only, no weather.
func (h *Handler) GetFavoriteNames(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	names := h.favorites.List(r.Context(), sess)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"places": names})
}

// AddFavorite handles POST /favorites/{place}.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	place, err := validation.ValidatePlace(mux.Vars(r)["place"], h.placeMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PLACE", err.Error())
		return
	}

	sess := sessionFromContext(r.Context())
	names, err := h.favorites.Add(r.Context(), sess, place)
	if err != nil {
		if errors.Is(err, favorites.ErrAlreadyFavorited) {
			writeError(w, r, http.StatusConflict, "ALREADY_FAVORITED", "place is already in favorites")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "unable to update favorites")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"places": names})
}

// RemoveFavorite handles DELETE /favorites/{place}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	place, err := validation.ValidatePlace(mux.Vars(r)["place"], h.placeMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PLACE", err.Error())
		return
	}

	sess := sessionFromContext(r.Context())
	names, err := h.favorites.Remove(r.Context(), sess, place)
	if err != nil {
		if errors.Is(err, favorites.ErrNotFavorited) {
			writeError(w, r, http.StatusNotFound, "NOT_FAVORITED", "place is not in favorites")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "unable to update favorites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"places": names})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if shuttingDown.Load() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	checks := make(map[string]string)
	if h.storePing != nil {
		if h.storePing(r.Context()) == nil {
			checks["store"] = "healthy"
		} else {
			// Cache unavailability degrades, it does not fail requests.
			checks["store"] = "unhealthy"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-favorites",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeWeatherError maps orchestrator errors onto the response surface.
// PlaceNotFound is the caller's problem; everything else is the upstream's.
func (h *Handler) writeWeatherError(w http.ResponseWriter, r *http.Request, place string, err error) {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("weather lookup failed", zap.String("place", place), zap.Error(err))
	}
	switch {
	case errors.Is(err, provider.ErrPlaceNotFound):
		writeError(w, r, http.StatusNotFound, "PLACE_NOT_FOUND", "no place matches the given name")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "unable to fetch weather data")
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard envelope with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
