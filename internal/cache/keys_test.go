package cache

import (
	"testing"
	"unicode"
)

// TestKey_Deterministic verifies that identical inputs always address the
// same stored entry.
func TestKey_Deterministic(t *testing.T) {
	a := Key(KindWeather, "", "Paris")
	b := Key(KindWeather, "", "Paris")
	if a != b {
		t.Fatalf("Key not deterministic: %q != %q", a, b)
	}
}

// TestKey_CaseInsensitiveName verifies that place-name casing does not change
// the key.
func TestKey_CaseInsensitiveName(t *testing.T) {
	if WeatherKey("Paris") != WeatherKey("paris") {
		t.Errorf("WeatherKey casing changes key: %q vs %q", WeatherKey("Paris"), WeatherKey("paris"))
	}
	if WeatherKey(" Paris ") != WeatherKey("paris") {
		t.Errorf("WeatherKey whitespace changes key: %q vs %q", WeatherKey(" Paris "), WeatherKey("paris"))
	}
}

// TestKey_Layout pins the key format so stored entries survive upgrades.
func TestKey_Layout(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "global weather", got: WeatherKey("New York"), want: "wx:weather:new_york"},
		{name: "session favorites", got: FavoritesKey("tok123"), want: "wx:favorites:tok123"},
		{name: "generic", got: Key("weather", "scope", "Oslo"), want: "wx:weather:scope:oslo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("key = %q, want %q", tc.got, tc.want)
			}
		})
	}
}

// TestKey_MemcachedLegal verifies that keys for multi-word and oddly spaced
// names contain no whitespace or control characters, which the memcached
// protocol rejects before any network I/O.
func TestKey_MemcachedLegal(t *testing.T) {
	names := []string{
		"New York",
		"Rio de Janeiro",
		"Frankfurt am Main",
		"paris\tfrance",
		"  Den  Haag  ",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			key := WeatherKey(name)
			for _, r := range key {
				if unicode.IsSpace(r) || unicode.IsControl(r) {
					t.Fatalf("WeatherKey(%q) = %q contains illegal rune %q", name, key, r)
				}
			}
			if len(key) > 250 {
				t.Errorf("WeatherKey(%q) length %d exceeds memcached limit", name, len(key))
			}
		})
	}
}

// TestKey_MultiWordStable verifies that spacing variants of a multi-word name
// still address distinct entries while casing variants collapse.
func TestKey_MultiWordStable(t *testing.T) {
	if WeatherKey("New York") != WeatherKey("new york") {
		t.Error("casing changes multi-word key")
	}
	if WeatherKey("New York") == WeatherKey("NewYork") {
		t.Error("distinct names collide after folding")
	}
}

// TestKey_ScopeSeparation verifies that different sessions never share a
// favorites key and that weather keys are global.
func TestKey_ScopeSeparation(t *testing.T) {
	if FavoritesKey("a") == FavoritesKey("b") {
		t.Error("favorites keys for different sessions collide")
	}
	if FavoritesKey("a") == WeatherKey("a") {
		t.Error("favorites and weather keys collide")
	}
}
