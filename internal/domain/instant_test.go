package domain

import (
	"testing"
	"time"
)

func TestToInstant(t *testing.T) {
	native := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{name: "native time", input: native, want: native, ok: true},
		{name: "pointer time", input: &native, want: native, ok: true},
		{name: "nil pointer", input: (*time.Time)(nil)},
		{name: "zero time", input: time.Time{}},
		{
			name:  "rfc3339",
			input: "2026-03-01T10:00:00Z",
			want:  native,
			ok:    true,
		},
		{
			name:  "rfc3339 with offset",
			input: "2026-03-01T17:00:00+07:00",
			want:  native,
			ok:    true,
		},
		{
			name:  "date only",
			input: "2026-03-01",
			want:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{name: "empty string", input: ""},
		{name: "garbage string", input: "next tuesday"},
		{
			name:  "unix seconds",
			input: int64(1772359200),
			want:  time.Unix(1772359200, 0).UTC(),
			ok:    true,
		},
		{
			name:  "unix milliseconds",
			input: int64(1772359200000),
			want:  time.UnixMilli(1772359200000).UTC(),
			ok:    true,
		},
		{
			name:  "json number",
			input: float64(1772359200),
			want:  time.Unix(1772359200, 0).UTC(),
			ok:    true,
		},
		{name: "zero epoch", input: int64(0)},
		{name: "negative epoch", input: int64(-5)},
		{name: "unsupported shape", input: map[string]any{"at": "now"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToInstant(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if tc.ok && !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeTrialIdentity(t *testing.T) {
	id := NewTrialIdentity("  Budi@Example.COM ", "+62 812-3456-7890")
	if id.Email != "budi@example.com" {
		t.Fatalf("email = %q", id.Email)
	}
	if id.Phone != "+6281234567890" {
		t.Fatalf("phone = %q", id.Phone)
	}
}
