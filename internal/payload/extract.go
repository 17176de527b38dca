// Package payload locates the event list inside an arbitrarily-shaped
// delivery body. Senders disagree about whether the body is a bare array or
// an object wrapping the array under one of several keys, sometimes nested.
package payload

// maxProbeDepth bounds recursion into wrapper objects so a hostile payload of
// deeply nested objects cannot drive unbounded work.
const maxProbeDepth = 5

// wrapperKeys are probed in order; the first key whose value yields a
// non-empty record list wins. Order is part of the contract: it keeps the
// fallback behavior auditable when a body carries more than one wrapper key.
var wrapperKeys = []string{"events", "data", "payload", "body"}

// Events extracts the ordered list of raw event records from a decoded JSON
// value of unknown shape.
//
//   - A top-level array is the event list itself; non-object elements are
//     filtered out.
//   - A top-level object is probed for wrapper keys, recursing into object
//     values up to maxProbeDepth.
//   - Anything else, or an object with no recognizable list, yields an empty
//     list. Absence of events is a valid zero-processed outcome, not an error.
func Events(v any) []map[string]any {
	switch val := v.(type) {
	case []any:
		return objectsOf(val)
	case map[string]any:
		return probe(val, 0)
	default:
		return nil
	}
}

// probe searches a wrapper object for the event list.
func probe(obj map[string]any, depth int) []map[string]any {
	if depth >= maxProbeDepth {
		return nil
	}
	for _, key := range wrapperKeys {
		nested, ok := obj[key]
		if !ok {
			continue
		}
		switch val := nested.(type) {
		case []any:
			if records := objectsOf(val); len(records) > 0 {
				return records
			}
		case map[string]any:
			if records := probe(val, depth+1); len(records) > 0 {
				return records
			}
		}
	}
	return nil
}

// objectsOf filters an array down to its object-shaped elements.
func objectsOf(items []any) []map[string]any {
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
