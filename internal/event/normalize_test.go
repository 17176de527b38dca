package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, raw string) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestNormalizeExplicitID(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"e1","timestamp":1700000000,"url":"https://x.com/a"}`))
	require.True(t, ok)

	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ev.OccurredAt)
	assert.Equal(t, "https://x.com/a", ev.URL)
	assert.Equal(t, "/a", ev.Path)
}

func TestNormalizeIDAliases(t *testing.T) {
	for _, alias := range []string{"id", "eventId", "event_id", "eid", "uuid"} {
		rec := record(t, `{"timestamp":1700000000}`)
		rec[alias] = "e-" + alias
		ev, ok := Normalize(rec)
		require.True(t, ok, alias)
		assert.Equal(t, "e-"+alias, ev.ID, alias)
	}
}

func TestNormalizeNumericID(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":12345,"timestamp":1700000000}`))
	require.True(t, ok)
	assert.Equal(t, "12345", ev.ID)
}

func TestNormalizeTimestampUnits(t *testing.T) {
	seconds, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000}`))
	require.True(t, ok)

	millis, ok := Normalize(record(t, `{"id":"b","timestamp":1700000000000}`))
	require.True(t, ok)

	// Same instant whether the sender used seconds or milliseconds.
	assert.True(t, seconds.OccurredAt.Equal(millis.OccurredAt),
		"seconds=%v millis=%v", seconds.OccurredAt, millis.OccurredAt)
}

func TestNormalizeTimestampAliases(t *testing.T) {
	cases := map[string]string{
		"timestamp":   `{"id":"a","timestamp":1700000000}`,
		"occurredAt":  `{"id":"a","occurredAt":"2023-11-14T22:13:20Z"}`,
		"occurred_at": `{"id":"a","occurred_at":"2023-11-14T22:13:20.000Z"}`,
		"receivedAt":  `{"id":"a","receivedAt":1700000000}`,
		"ts":          `{"id":"a","ts":"1700000000"}`,
	}
	want := time.Unix(1700000000, 0).UTC()

	for name, raw := range cases {
		ev, ok := Normalize(record(t, raw))
		require.True(t, ok, name)
		assert.True(t, ev.OccurredAt.Equal(want), "%s: got %v", name, ev.OccurredAt)
	}
}

func TestNormalizeDropsUnparseableTimestamp(t *testing.T) {
	for name, raw := range map[string]string{
		"missing":     `{"id":"a"}`,
		"garbage":     `{"id":"a","timestamp":"not a time"}`,
		"zero":        `{"id":"a","timestamp":0}`,
		"negative":    `{"id":"a","timestamp":-5}`,
		"empty alias": `{"id":"a","occurredAt":""}`,
	} {
		_, ok := Normalize(record(t, raw))
		assert.False(t, ok, name)
	}
}

func TestSynthesizedIDDeterminism(t *testing.T) {
	raw := `{"timestamp":1700000000,"sessionId":"s1","url":"https://x.com/a"}`

	first, ok := Normalize(record(t, raw))
	require.True(t, ok)
	second, ok := Normalize(record(t, raw))
	require.True(t, ok)

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID, "identical records must synthesize identical ids")

	// Changing any contributing field changes the id.
	variants := []string{
		`{"timestamp":1700000001,"sessionId":"s1","url":"https://x.com/a"}`,
		`{"timestamp":1700000000,"sessionId":"s2","url":"https://x.com/a"}`,
		`{"timestamp":1700000000,"sessionId":"s1","url":"https://x.com/b"}`,
	}
	for _, v := range variants {
		ev, ok := Normalize(record(t, v))
		require.True(t, ok, v)
		assert.NotEqual(t, first.ID, ev.ID, v)
	}
}

func TestSynthesizedIDPrefersExplicit(t *testing.T) {
	withID, ok := Normalize(record(t, `{"id":"explicit","timestamp":1700000000,"sessionId":"s1"}`))
	require.True(t, ok)
	assert.Equal(t, "explicit", withID.ID)
}

func TestNormalizeURLFromOriginAndPath(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000,"origin":"https://x.com/","path":"/pricing"}`))
	require.True(t, ok)
	assert.Equal(t, "https://x.com/pricing", ev.URL)
	assert.Equal(t, "/pricing", ev.Path)
}

func TestNormalizeURLFromOriginOnly(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000,"origin":"https://x.com"}`))
	require.True(t, ok)
	assert.Equal(t, "https://x.com", ev.URL)
	assert.Empty(t, ev.Path)
}

func TestNormalizePathDerivedFromURL(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000,"url":"https://x.com/docs/install?ref=nav"}`))
	require.True(t, ok)
	assert.Equal(t, "/docs/install", ev.Path)
}

func TestNormalizeMalformedURLTolerated(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000,"url":"ht tp://%%%"}`))
	require.True(t, ok)
	assert.Equal(t, "ht tp://%%%", ev.URL)
	assert.Empty(t, ev.Path)
}

func TestResolveGeo(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		country string
		city    string
		region  string
	}{
		{
			name:    "direct location object",
			raw:     `{"id":"a","timestamp":1700000000,"location":{"country":"Germany","city":"Berlin","region":"BE"}}`,
			country: "Germany",
			city:    "Berlin",
			region:  "BE",
		},
		{
			name:    "country code expanded",
			raw:     `{"id":"a","timestamp":1700000000,"geo":{"countryCode":"US","city":"Austin"}}`,
			country: "United States",
			city:    "Austin",
		},
		{
			name:    "lowercase country code expanded",
			raw:     `{"id":"a","timestamp":1700000000,"geo":{"cc":"fr"}}`,
			country: "France",
		},
		{
			name:    "nested context.location",
			raw:     `{"id":"a","timestamp":1700000000,"context":{"location":{"country":"JP","region":"Kanto"}}}`,
			country: "Japan",
			region:  "Kanto",
		},
		{
			name:    "nested properties.geo",
			raw:     `{"id":"a","timestamp":1700000000,"properties":{"geo":{"country":"Brazil"}}}`,
			country: "Brazil",
		},
		{
			name: "direct container wins over nested",
			raw: `{"id":"a","timestamp":1700000000,
				"location":{"country":"CA"},
				"context":{"location":{"country":"MX"}}}`,
			country: "Canada",
		},
		{
			name: "no geo anywhere",
			raw:  `{"id":"a","timestamp":1700000000}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Normalize(record(t, tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.country, ev.Country)
			assert.Equal(t, tt.city, ev.City)
			assert.Equal(t, tt.region, ev.Region)
		})
	}
}

func TestResolveRequestAttributes(t *testing.T) {
	ev, ok := Normalize(record(t, `{
		"id":"a","timestamp":1700000000,
		"userAgent":"Mozilla/5.0",
		"referrer":"https://news.ycombinator.com/",
		"ip":"203.0.113.9"
	}`))
	require.True(t, ok)
	assert.Equal(t, "Mozilla/5.0", ev.UserAgent)
	assert.Equal(t, "https://news.ycombinator.com/", ev.Referrer)
	assert.Equal(t, "203.0.113.9", ev.ClientIP)
}

func TestResolveFromHeaderBag(t *testing.T) {
	// Header names matched case-insensitively; X-Forwarded-For takes the
	// first hop of the chain.
	ev, ok := Normalize(record(t, `{
		"id":"a","timestamp":1700000000,
		"headers":{
			"user-agent":"curl/8.0",
			"REFERER":"https://x.com/",
			"x-forwarded-for":"198.51.100.7, 10.0.0.1"
		}
	}`))
	require.True(t, ok)
	assert.Equal(t, "curl/8.0", ev.UserAgent)
	assert.Equal(t, "https://x.com/", ev.Referrer)
	assert.Equal(t, "198.51.100.7", ev.ClientIP)
}

func TestResolveFromNestedHeaderBag(t *testing.T) {
	ev, ok := Normalize(record(t, `{
		"id":"a","timestamp":1700000000,
		"context":{"headers":{"User-Agent":"Safari"}}
	}`))
	require.True(t, ok)
	assert.Equal(t, "Safari", ev.UserAgent)
}

func TestNormalizeSessionAndVisitAliases(t *testing.T) {
	ev, ok := Normalize(record(t, `{"id":"a","timestamp":1700000000,"session_id":"s9","visitId":"v3"}`))
	require.True(t, ok)
	assert.Equal(t, "s9", ev.SessionID)
	assert.Equal(t, "v3", ev.VisitID)
}
