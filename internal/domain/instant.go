package domain

import "time"

// millisecond epoch values start around 1973 when read as seconds, so any
// numeric value above this is treated as milliseconds
const msEpochThreshold = int64(1e12)

// ToInstant converts the date shapes that reach the store boundary (native
// time, RFC 3339 strings, unix seconds or milliseconds) into a single
// explicit instant. Ambiguous shapes are rejected rather than guessed; the
// second return value reports success. Conversion happens once at the
// boundary so the evaluator only ever sees time.Time.
func ToInstant(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return ToInstant(*t)
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC(), true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed.UTC(), true
		}
		return time.Time{}, false
	case int64:
		return fromEpoch(t)
	case int:
		return fromEpoch(int64(t))
	case float64:
		return fromEpoch(int64(t))
	default:
		return time.Time{}, false
	}
}

func fromEpoch(v int64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v >= msEpochThreshold {
		return time.UnixMilli(v).UTC(), true
	}
	return time.Unix(v, 0).UTC(), true
}
