package cache

import (
	"strings"
)

// Namespace is the Redis key prefix for the coinlook application.
const Namespace = "coinlook"

// DefaultSession is the session used by clients that send none.
const DefaultSession = "default"

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Watchlist Keys ---------------------------------------------------------

// LegacyWatchlistKey is the single-user key, matching the one a browser keeps
// in localStorage and the one the terminal client uses.
const LegacyWatchlistKey = "coinlook_watchlist"

// WatchlistKey holds the encoded watchlist of one session. The default session
// shares the single-user key.
func WatchlistKey(session string) string {
	session = strings.TrimSpace(session)
	if session == "" || session == DefaultSession {
		return LegacyWatchlistKey
	}
	return formatKey("watchlist", session)
}
