package event

import "strings"

// Some senders forward the original browser request headers as a nested
// object. Header names are matched case-insensitively: upstream relays do
// not preserve HTTP header capitalization.
var headerBagKeys = []string{"headers", "requestHeaders", "request_headers"}

var (
	userAgentKeys = []string{"userAgent", "user_agent", "ua"}
	referrerKeys  = []string{"referrer", "referer"}
	clientIPKeys  = []string{"ip", "clientIp", "client_ip", "remoteAddr", "remote_addr"}
)

func resolveUserAgent(rec map[string]any) string {
	if s := stringField(rec, userAgentKeys); s != "" {
		return s
	}
	return headerValue(rec, "User-Agent")
}

func resolveReferrer(rec map[string]any) string {
	if s := stringField(rec, referrerKeys); s != "" {
		return s
	}
	return headerValue(rec, "Referer")
}

func resolveClientIP(rec map[string]any) string {
	if s := stringField(rec, clientIPKeys); s != "" {
		return s
	}
	// X-Forwarded-For carries a comma-separated chain; the first hop is the
	// original client.
	if s := headerValue(rec, "X-Forwarded-For"); s != "" {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}
	return headerValue(rec, "X-Real-Ip")
}

// headerValue searches every header bag on the record (direct, or nested
// under context/properties) for name, comparing names case-insensitively.
func headerValue(rec map[string]any, name string) string {
	for _, bag := range headerBags(rec) {
		for key, v := range bag {
			if !strings.EqualFold(key, name) {
				continue
			}
			if s, ok := asString(v); ok {
				return s
			}
		}
	}
	return ""
}

func headerBags(rec map[string]any) []map[string]any {
	var bags []map[string]any
	appendFrom := func(obj map[string]any) {
		for _, key := range headerBagKeys {
			if bag, ok := obj[key].(map[string]any); ok {
				bags = append(bags, bag)
			}
		}
	}

	appendFrom(rec)
	for _, nest := range geoNestKeys {
		if obj, ok := rec[nest].(map[string]any); ok {
			appendFrom(obj)
		}
	}
	return bags
}
