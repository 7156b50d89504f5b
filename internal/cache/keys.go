package cache

import (
	"strings"
	"unicode"
)

const keyPrefix = "wx"

// Entry kinds. Weather entries are global per place; favorites are scoped
// per session token.
const (
	KindWeather   = "weather"
	KindFavorites = "favorites"
)

// Key builds the namespaced storage key for an entry. scope is the session
// token for per-session kinds and empty for global kinds; name is lower-cased
// and whitespace is folded to underscores so the key is legal on every
// backend (memcached forbids spaces and control characters). The mapping is
// pure: identical inputs always address the same stored entry.
func Key(kind, scope, name string) string {
	parts := []string{keyPrefix, kind}
	if scope != "" {
		parts = append(parts, scope)
	}
	if name != "" {
		parts = append(parts, foldName(name))
	}
	return strings.Join(parts, ":")
}

// foldName normalizes a name segment: trimmed, lower-cased, whitespace and
// control runes replaced with underscores. Place names never contain
// underscores, so the fold cannot collide two distinct names.
func foldName(name string) string {
	folded := strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, folded)
}

// WeatherKey addresses the global weather snapshot for a place.
func WeatherKey(place string) string {
	return Key(KindWeather, "", place)
}

// FavoritesKey addresses one session's favorites list.
func FavoritesKey(session string) string {
	return Key(KindFavorites, session, "")
}
