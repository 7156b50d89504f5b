// Package weather contains the orchestrator that decides, per request,
// between serving a cached snapshot and driving the upstream provider.
package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akotliarov/weather-favorites/internal/cache"
	"github.com/akotliarov/weather-favorites/internal/models"
	"github.com/akotliarov/weather-favorites/internal/observability"
	"github.com/akotliarov/weather-favorites/internal/provider"
)

// Class is the freshness-tolerance class of a lookup. The favorites/home
// view tolerates an hour of staleness; a direct single-place query does not.
type Class int

const (
	// Proactive is used for the favorites/home view (long TTL).
	Proactive Class = iota
	// OnDemand is used for a direct single-place query (short TTL).
	OnDemand
)

func (c Class) String() string {
	if c == OnDemand {
		return "on_demand"
	}
	return "proactive"
}

// Result sources.
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

// Result is a served weather snapshot plus where it came from.
type Result struct {
	Weather *models.PlaceWeather
	Source  string
}

// Orchestrator runs the per-place state machine: cache check, resolve,
// concurrent conditions+forecast fetch, best-effort write-back.
type Orchestrator struct {
	client       provider.Client
	store        *cache.Store
	proactiveTTL time.Duration
	onDemandTTL  time.Duration
	logger       *zap.Logger
}

// NewOrchestrator returns an Orchestrator. proactiveTTL and onDemandTTL are
// the freshness windows for the two lookup classes.
func NewOrchestrator(client provider.Client, store *cache.Store, proactiveTTL, onDemandTTL time.Duration, logger *zap.Logger) *Orchestrator {
	if proactiveTTL <= 0 {
		proactiveTTL = time.Hour
	}
	if onDemandTTL <= 0 {
		onDemandTTL = 5 * time.Minute
	}
	return &Orchestrator{
		client:       client,
		store:        store,
		proactiveTTL: proactiveTTL,
		onDemandTTL:  onDemandTTL,
		logger:       logger,
	}
}

func (o *Orchestrator) ttl(class Class) time.Duration {
	if class == OnDemand {
		return o.onDemandTTL
	}
	return o.proactiveTTL
}

// Get serves weather for one place. A cached snapshot younger than the
// class TTL wins; otherwise the upstream sequence runs and the fresh entry
// is written back with the class TTL. A snapshot written by one class is
// accepted by any reader whose own tolerance it meets, so a proactive write
// warms later on-demand queries. Cache-write failure does not change the
// outcome of the current request.
func (o *Orchestrator) Get(ctx context.Context, place string, class Class) (Result, error) {
	name := normalizePlace(place)
	logger := o.logger

	if cached, ok := o.store.Weather(ctx, name); ok && cached.Age() < o.ttl(class) {
		observability.WeatherServedTotal.WithLabelValues(class.String(), SourceCache).Inc()
		logger.Debug("weather served from cache",
			zap.String("place", name), zap.String("class", class.String()), zap.Duration("age", cached.Age()))
		return Result{Weather: cached, Source: SourceCache}, nil
	}

	logger.Debug("cache miss, resolving place", zap.String("place", name), zap.String("class", class.String()))
	resolved, err := o.client.ResolvePlace(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("resolve place %q: %w", name, err)
	}

	entry, err := o.fetch(ctx, name, resolved)
	if err != nil {
		return Result{}, err
	}

	// Best-effort write-back; only the next request pays for a failure here.
	o.store.PutWeather(ctx, name, entry, o.ttl(class))

	observability.WeatherServedTotal.WithLabelValues(class.String(), SourceUpstream).Inc()
	logger.Debug("weather served from upstream", zap.String("place", name), zap.String("class", class.String()))
	return Result{Weather: entry, Source: SourceUpstream}, nil
}

// fetch runs the conditions and forecast calls concurrently. Both must
// succeed; a conditions-only snapshot is never built, so the cache never
// holds an incomplete entry.
func (o *Orchestrator) fetch(ctx context.Context, name string, resolved provider.Place) (*models.PlaceWeather, error) {
	entry := &models.PlaceWeather{
		Place:   displayName(resolved, name),
		PlaceID: resolved.ID,
	}

	var wg sync.WaitGroup
	var condErr, fcErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		entry.Current, condErr = o.client.CurrentConditions(ctx, resolved.ID)
	}()
	go func() {
		defer wg.Done()
		entry.Forecast, fcErr = o.client.Forecast(ctx, resolved.ID)
	}()
	wg.Wait()

	if condErr != nil {
		return nil, fmt.Errorf("fetch conditions for %q: %w", name, condErr)
	}
	if fcErr != nil {
		return nil, fmt.Errorf("fetch forecast for %q: %w", name, fcErr)
	}

	entry.FetchedAt = time.Now().UTC()
	return entry, nil
}

// Batch runs the state machine independently for each place with the
// proactive class. A failure for one place does not abort the batch: that
// row carries an unavailable marker while the others succeed. Row order
// follows the input order.
func (o *Orchestrator) Batch(ctx context.Context, places []string) []models.FavoriteWeather {
	rows := make([]models.FavoriteWeather, len(places))

	var wg sync.WaitGroup
	for i, place := range places {
		wg.Add(1)
		go func(i int, place string) {
			defer wg.Done()
			rows[i].Place = place
			res, err := o.Get(ctx, place, Proactive)
			if err != nil {
				rows[i].Unavailable = true
				o.logger.Warn("favorites batch: place unavailable",
					zap.String("place", place), zap.Error(err))
				return
			}
			rows[i].Weather = res.Weather
			rows[i].Source = res.Source
		}(i, place)
	}
	wg.Wait()

	return rows
}

// InvalidatePlace drops the place's cached weather. Called when a session
// removes the place from its favorites.
func (o *Orchestrator) InvalidatePlace(ctx context.Context, place string) {
	o.store.DeleteWeather(ctx, normalizePlace(place))
}

// normalizePlace trims and lower-cases a place name for cache addressing.
func normalizePlace(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// displayName prefers the provider's localized name, falling back to the
// caller-supplied one.
func displayName(resolved provider.Place, fallback string) string {
	if resolved.Name != "" {
		return resolved.Name
	}
	return fallback
}
