package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/akotliarov/weather-favorites/internal/models"
)

// failingKV simulates an unreachable key-value store.
type failingKV struct {
	err error
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.err
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return f.err
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	return f.err
}

// TestStore_WeatherRoundTrip verifies that payload bytes survive the store
// losslessly and that lookups are case-insensitive.
func TestStore_WeatherRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	entry := &models.PlaceWeather{
		Place:     "Paris",
		PlaceID:   "623",
		Current:   json.RawMessage(`[{"Temperature":{"Metric":{"Value":21.5}}}]`),
		Forecast:  json.RawMessage(`{"DailyForecasts":[{"Day":{"Icon":1}}]}`),
		FetchedAt: time.Now().UTC(),
	}
	store.PutWeather(ctx, "paris", entry, time.Minute)

	got, ok := store.Weather(ctx, "PARIS")
	if !ok {
		t.Fatal("Weather() ok = false, want true")
	}
	if !bytes.Equal(got.Current, entry.Current) {
		t.Errorf("Current payload changed: %s != %s", got.Current, entry.Current)
	}
	if !bytes.Equal(got.Forecast, entry.Forecast) {
		t.Errorf("Forecast payload changed: %s != %s", got.Forecast, entry.Forecast)
	}
	if got.PlaceID != entry.PlaceID {
		t.Errorf("PlaceID = %q, want %q", got.PlaceID, entry.PlaceID)
	}
}

// TestStore_ReadFailureIsMiss verifies that store unavailability degrades to
// a miss instead of an error reaching the caller.
func TestStore_ReadFailureIsMiss(t *testing.T) {
	store := NewStore(&failingKV{err: errors.New("connection refused")}, zap.NewNop())

	if _, ok := store.Weather(context.Background(), "paris"); ok {
		t.Error("Weather() ok = true on failing store, want false")
	}
	if names := store.Favorites(context.Background(), "sess"); len(names) != 0 {
		t.Errorf("Favorites() = %v on failing store, want empty", names)
	}
}

// TestStore_WriteFailureIsNoOp verifies that writes and deletes against an
// unreachable store do not panic or surface errors.
func TestStore_WriteFailureIsNoOp(t *testing.T) {
	store := NewStore(&failingKV{err: errors.New("connection refused")}, zap.NewNop())
	ctx := context.Background()

	store.PutWeather(ctx, "paris", &models.PlaceWeather{Place: "Paris"}, time.Minute)
	store.DeleteWeather(ctx, "paris")
	store.PutFavorites(ctx, "sess", []string{"Paris"}, time.Hour)
}

// TestStore_CorruptEntryIsMiss verifies that an undecodable entry degrades
// to a miss.
func TestStore_CorruptEntryIsMiss(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	if err := kv.Set(ctx, WeatherKey("paris"), []byte("not json"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	store := NewStore(kv, zap.NewNop())
	if _, ok := store.Weather(ctx, "paris"); ok {
		t.Error("Weather() ok = true for corrupt entry, want false")
	}
}

// TestStore_FavoritesRoundTrip verifies favorites list persistence with
// display casing preserved.
func TestStore_FavoritesRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	names := []string{"Paris", "New York", "oslo"}
	store.PutFavorites(ctx, "sess1", names, time.Hour)

	got := store.Favorites(ctx, "sess1")
	if len(got) != len(names) {
		t.Fatalf("Favorites() len = %d, want %d", len(got), len(names))
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("Favorites()[%d] = %q, want %q", i, got[i], names[i])
		}
	}

	if other := store.Favorites(ctx, "sess2"); len(other) != 0 {
		t.Errorf("Favorites() for other session = %v, want empty", other)
	}
}
