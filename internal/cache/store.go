package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/akotliarov/weather-favorites/internal/models"
	"github.com/akotliarov/weather-favorites/internal/observability"
)

// Store is the typed adapter over a KV backend. Store unavailability never
// propagates to callers: reads degrade to misses, writes and deletes to
// logged no-ops. Data already in hand must not be withheld because the
// store is down. TTLs are always chosen by the caller.
type Store struct {
	kv     KV
	logger *zap.Logger
}

// NewStore returns a Store over the given backend.
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Weather reads the global weather snapshot for a place. Returns false on a
// miss, on a corrupt entry, or when the store is unreachable.
func (s *Store) Weather(ctx context.Context, place string) (*models.PlaceWeather, bool) {
	raw, found, err := s.kv.Get(ctx, WeatherKey(place))
	if err != nil {
		s.degrade("get", err)
		return nil, false
	}
	if !found {
		observability.CacheReadsTotal.WithLabelValues(KindWeather, "miss").Inc()
		return nil, false
	}
	var w models.PlaceWeather
	if err := json.Unmarshal(raw, &w); err != nil {
		s.degrade("get", err)
		return nil, false
	}
	observability.CacheReadsTotal.WithLabelValues(KindWeather, "hit").Inc()
	return &w, true
}

// PutWeather writes the global weather snapshot for a place, best-effort.
func (s *Store) PutWeather(ctx context.Context, place string, w *models.PlaceWeather, ttl time.Duration) {
	raw, err := json.Marshal(w)
	if err != nil {
		s.degrade("set", err)
		return
	}
	if err := s.kv.Set(ctx, WeatherKey(place), raw, ttl); err != nil {
		s.degrade("set", err)
	}
}

// DeleteWeather drops the global weather snapshot for a place, best-effort.
func (s *Store) DeleteWeather(ctx context.Context, place string) {
	if err := s.kv.Delete(ctx, WeatherKey(place)); err != nil {
		s.degrade("delete", err)
	}
}

// Favorites reads one session's favorites list. A miss, corrupt entry, or
// unreachable store all yield an empty list.
func (s *Store) Favorites(ctx context.Context, session string) []string {
	raw, found, err := s.kv.Get(ctx, FavoritesKey(session))
	if err != nil {
		s.degrade("get", err)
		return nil
	}
	if !found {
		observability.CacheReadsTotal.WithLabelValues(KindFavorites, "miss").Inc()
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		s.degrade("get", err)
		return nil
	}
	observability.CacheReadsTotal.WithLabelValues(KindFavorites, "hit").Inc()
	return names
}

// PutFavorites writes one session's favorites list, best-effort.
func (s *Store) PutFavorites(ctx context.Context, session string, names []string, ttl time.Duration) {
	raw, err := json.Marshal(names)
	if err != nil {
		s.degrade("set", err)
		return
	}
	if err := s.kv.Set(ctx, FavoritesKey(session), raw, ttl); err != nil {
		s.degrade("set", err)
	}
}

// degrade records a store failure. The request carries on as if the entry
// were absent.
func (s *Store) degrade(op string, err error) {
	observability.CacheErrorsTotal.WithLabelValues(op).Inc()
	if s.logger != nil {
		s.logger.Warn("cache unavailable", zap.String("op", op), zap.Error(err))
	}
}
