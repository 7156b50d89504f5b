// Package favorites owns the ordered, deduplicated, size-bounded list of
// favorite place names kept per session identity.
package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akotliarov/weather-favorites/internal/cache"
	"github.com/akotliarov/weather-favorites/internal/observability"
)

var (
	// ErrAlreadyFavorited is returned when a case-insensitive match already exists.
	ErrAlreadyFavorited = errors.New("place already favorited")

	// ErrNotFavorited is returned when removing a place that is not on the list.
	ErrNotFavorited = errors.New("place not favorited")
)

// Invalidator purges a place's cached weather. Implemented by the weather
// orchestrator; called when a place is removed so un-favorited places are
// not kept warm.
type Invalidator interface {
	InvalidatePlace(ctx context.Context, place string)
}

// Manager mutates one session's favorites list. The list is read-modify-
// written without a transaction; two concurrent mutations for the same
// session may lose an update (see DESIGN.md).
type Manager struct {
	store      *cache.Store
	invalidate Invalidator
	maxEntries int
	listTTL    time.Duration
	logger     *zap.Logger
}

// NewManager returns a Manager. maxEntries bounds the list (oldest evicted
// first on overflow); listTTL is how long a session's list persists in the
// store, normally aligned with the session cookie lifetime.
func NewManager(store *cache.Store, invalidate Invalidator, maxEntries int, listTTL time.Duration, logger *zap.Logger) *Manager {
	if maxEntries <= 0 {
		maxEntries = 10
	}
	return &Manager{
		store:      store,
		invalidate: invalidate,
		maxEntries: maxEntries,
		listTTL:    listTTL,
		logger:     logger,
	}
}

// List returns the session's favorites in insertion order. Never fails:
// store unavailability degrades to an empty list, which is safer than
// blocking the page.
func (m *Manager) List(ctx context.Context, session string) []string {
	return m.store.Favorites(ctx, session)
}

// Add appends a place to the session's favorites. The display name keeps the
// casing supplied at add-time; comparison is trimmed and case-insensitive.
// Overflow evicts the oldest entries until the list is within bound.
func (m *Manager) Add(ctx context.Context, session, place string) ([]string, error) {
	name := strings.TrimSpace(place)
	names := m.store.Favorites(ctx, session)

	if indexOf(names, name) >= 0 {
		observability.FavoritesOpsTotal.WithLabelValues("add", "rejected").Inc()
		return names, ErrAlreadyFavorited
	}

	names = append(names, name)
	for len(names) > m.maxEntries {
		evicted := names[0]
		names = names[1:]
		m.logger.Debug("favorites bound reached, evicting oldest",
			zap.String("evicted", evicted), zap.Int("max", m.maxEntries))
	}

	m.store.PutFavorites(ctx, session, names, m.listTTL)
	observability.FavoritesOpsTotal.WithLabelValues("add", "ok").Inc()
	return names, nil
}

// Remove deletes a place from the session's favorites (case-insensitive
// match) and purges its cached weather. Conditions data is cheap to refetch,
// so the purge does not check whether other sessions still favorite the place.
func (m *Manager) Remove(ctx context.Context, session, place string) ([]string, error) {
	name := strings.TrimSpace(place)
	names := m.store.Favorites(ctx, session)

	i := indexOf(names, name)
	if i < 0 {
		observability.FavoritesOpsTotal.WithLabelValues("remove", "rejected").Inc()
		return names, ErrNotFavorited
	}

	removed := names[i]
	names = append(names[:i:i], names[i+1:]...)
	m.store.PutFavorites(ctx, session, names, m.listTTL)

	if m.invalidate != nil {
		m.invalidate.InvalidatePlace(ctx, removed)
	}
	observability.FavoritesOpsTotal.WithLabelValues("remove", "ok").Inc()
	return names, nil
}

// indexOf returns the position of name in names under trimmed,
// case-insensitive comparison, or -1.
func indexOf(names []string, name string) int {
	folded := strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if strings.ToLower(strings.TrimSpace(n)) == folded {
			return i
		}
	}
	return -1
}
