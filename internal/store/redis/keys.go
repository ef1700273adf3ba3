package redis

import "fmt"

const (
	// KeyPrefixClicks is the prefix for per-link click counters
	KeyPrefixClicks = "hublink:clicks:"
	// KeyClickedLinks is the key for the set of link IDs that have a counter
	KeyClickedLinks = "hublink:clicked"
	// KeyPrefixWeather is the prefix for cached weather observations
	KeyPrefixWeather = "hublink:weather:"
)

// ClickKey returns the Redis key for a link click counter
func ClickKey(linkID string) string {
	return KeyPrefixClicks + linkID
}

// ClickedLinksKey returns the key for the set of counted link IDs
func ClickedLinksKey() string {
	return KeyClickedLinks
}

// WeatherKey returns the cache key for coordinates, rounded to ~1km
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.2f,%.2f", KeyPrefixWeather, lat, lon)
}

// ExtractLinkID extracts the link ID from a click counter key
func ExtractLinkID(key string) (string, error) {
	if len(key) <= len(KeyPrefixClicks) || key[:len(KeyPrefixClicks)] != KeyPrefixClicks {
		return "", fmt.Errorf("invalid click key: %s", key)
	}
	return key[len(KeyPrefixClicks):], nil
}
