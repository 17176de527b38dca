package event

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// The upstream sender is not a single well-behaved client: tag managers,
// server-side relays, and old tracker versions all deliver slightly different
// field names for the same attribute. Each attribute therefore resolves
// through an explicit, ordered candidate list. The order is the compatibility
// contract; do not sort or dedupe these.
var (
	idKeys      = []string{"id", "eventId", "event_id", "eid", "uuid"}
	timeKeys    = []string{"timestamp", "occurredAt", "occurred_at", "receivedAt", "received_at", "ts", "time"}
	sessionKeys = []string{"sessionId", "session_id", "sid"}
	visitKeys   = []string{"visitId", "visit_id", "vid"}
	urlKeys     = []string{"url", "href", "pageUrl", "page_url"}
	pathKeys    = []string{"path", "pathname"}
	originKeys  = []string{"origin"}
	typeKeys    = []string{"type", "eventType", "event_type"}
	nameKeys    = []string{"name", "eventName", "event_name", "en"}
)

// epochUnitThreshold splits numeric epoch timestamps into seconds vs
// milliseconds. The sender does not declare units; anything below 1e10 is
// seconds (1e10 s is year 2286), anything at or above is milliseconds.
const epochUnitThreshold = 1e10

// Normalize maps one raw sender record onto the canonical schema.
//
// It returns ok=false when the record must be dropped: no timestamp parses to
// a valid instant, or no identifier can be resolved or synthesized. A dropped
// record is a data-quality fact about the sender, not a fault; callers skip
// it and continue with the rest of the batch.
func Normalize(rec map[string]any) (Event, bool) {
	occurredAt, ok := resolveTime(rec)
	if !ok {
		return Event{}, false
	}

	session := stringField(rec, sessionKeys)
	visit := stringField(rec, visitKeys)
	rawURL := stringField(rec, urlKeys)
	rawPath := stringField(rec, pathKeys)
	origin := stringField(rec, originKeys)

	id := stringField(rec, idKeys)
	if id == "" {
		id = synthesizeID(occurredAt, session, visit, rawURL, rawPath, origin,
			stringField(rec, typeKeys), stringField(rec, nameKeys))
		if id == "" {
			return Event{}, false
		}
	}

	finalURL, finalPath := resolveURL(rawURL, origin, rawPath)
	country, city, region := resolveGeo(rec)

	return Event{
		ID:         id,
		OccurredAt: occurredAt,
		SessionID:  session,
		VisitID:    visit,
		URL:        finalURL,
		Path:       finalPath,
		Country:    country,
		City:       city,
		Region:     region,
		Referrer:   resolveReferrer(rec),
		UserAgent:  resolveUserAgent(rec),
		ClientIP:   resolveClientIP(rec),
	}, true
}

// resolveTime finds the first alias carrying a parseable timestamp.
func resolveTime(rec map[string]any) (time.Time, bool) {
	for _, key := range timeKeys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		if t, ok := parseInstant(v); ok {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseInstant(v any) (time.Time, bool) {
	switch val := v.(type) {
	case float64:
		return parseEpoch(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
		// Some relays stringify the epoch.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return parseEpoch(f)
		}
	}
	return time.Time{}, false
}

func parseEpoch(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f < epochUnitThreshold {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))), true
	}
	return time.UnixMilli(int64(f)), true
}

// synthesizeID derives a stable identifier for senders that omit one.
// Two deliveries carrying identical values for every contributing field hash
// to the same id, which is exactly the deduplication we want.
func synthesizeID(occurredAt time.Time, parts ...string) string {
	material := make([]string, 0, len(parts)+1)
	material = append(material, strconv.FormatInt(occurredAt.Unix(), 10))
	material = append(material, parts...)

	empty := true
	for _, p := range material {
		if p != "" {
			empty = false
			break
		}
	}
	if empty {
		return ""
	}

	sum := sha1.Sum([]byte(strings.Join(material, "|")))
	return hex.EncodeToString(sum[:])
}

// resolveURL settles the url/path pair from whatever combination the sender
// supplied. A malformed url is tolerated: the path is simply left absent.
func resolveURL(rawURL, origin, rawPath string) (string, string) {
	finalURL := rawURL
	if finalURL == "" {
		switch {
		case origin != "" && rawPath != "":
			finalURL = strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(rawPath, "/")
		case origin != "":
			finalURL = origin
		}
	}

	finalPath := rawPath
	if finalPath == "" && finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil && u.Path != "" {
			finalPath = u.Path
		}
	}
	return finalURL, finalPath
}

// stringField returns the first non-empty value among the candidate keys.
// Numeric values are accepted for identifiers some senders emit as numbers.
func stringField(rec map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := asString(rec[key]); ok {
			return s
		}
	}
	return ""
}

func asString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
