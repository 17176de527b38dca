// Package event defines the canonical analytics event and the normalizer
// that maps loosely-typed sender records onto it.
package event

import "time"

// Event is the canonical, persisted representation of one analytics event.
// ID is the upsert key and is never empty for a persisted event; every other
// string field is optional and an empty value is stored as NULL.
type Event struct {
	ID         string
	OccurredAt time.Time
	SessionID  string
	VisitID    string
	URL        string
	Path       string
	Country    string
	City       string
	Region     string
	Referrer   string
	UserAgent  string
	ClientIP   string
}
