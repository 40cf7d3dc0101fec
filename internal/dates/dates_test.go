package dates

import (
	"testing"
	"time"
)

func TestParseDatetime(t *testing.T) {
	valid := map[string]time.Time{
		"2010-09-30T16:04:59Z":      time.Date(2010, 9, 30, 16, 4, 59, 0, time.UTC),
		"2010-09-30T16:04:59":       time.Date(2010, 9, 30, 16, 4, 59, 0, time.UTC),
		"2010-09-30T16:04":          time.Date(2010, 9, 30, 16, 4, 0, 0, time.UTC),
		"2010-09-30":                time.Date(2010, 9, 30, 0, 0, 0, 0, time.UTC),
		"2025-06-15T14:00:00+05:00": time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
	for in, want := range valid {
		got, err := ParseDatetime(in)
		if err != nil {
			t.Fatalf("ParseDatetime(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDatetime(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "2025-13-01", "30/09/2010", "2010-09-30 16:04"} {
		if _, err := ParseDatetime(in); err == nil {
			t.Errorf("ParseDatetime(%q) should fail", in)
		}
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 2, 1, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		arg  string
		want time.Time
	}{
		{"today", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"Yesterday", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"30m", time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC)},
		{"12h", time.Date(2025, 2, 1, 3, 30, 0, 0, time.UTC)},
		{"7d", time.Date(2025, 1, 25, 15, 30, 0, 0, time.UTC)},
		{"2w", time.Date(2025, 1, 18, 15, 30, 0, 0, time.UTC)},
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseSince(tt.arg, now)
			if err != nil {
				t.Fatalf("ParseSince(%q): %v", tt.arg, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}

	for _, arg := range []string{"", "soon", "7y", "-3d"} {
		if _, err := ParseSince(arg, now); err == nil {
			t.Errorf("ParseSince(%q) should fail", arg)
		}
	}
}
