package model

import (
	"testing"
	"time"
)

func TestUrgencyRank(t *testing.T) {
	for i, u := range Urgencies {
		if u.Rank() != i {
			t.Errorf("%s: expected rank %d, got %d", u, i, u.Rank())
		}
	}
	if Urgency("bogus").Rank() <= UrgencyNormal.Rank() {
		t.Error("unknown urgency should sort after normal")
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "just now"},
		{now.Add(30 * time.Second), "just now"},
		{now.Add(-20 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-59 * time.Minute), "59m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.at, now); got != tt.want {
			t.Errorf("FormatAge(%v) = %q, want %q", now.Sub(tt.at), got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("crypto")
	if err != nil || c != CategoryCrypto {
		t.Fatalf("ParseCategory(crypto) = %q, %v", c, err)
	}
	if _, err := ParseCategory("sports"); err == nil {
		t.Error("expected error for unknown category")
	}
	if CategoryForex.Label() != "Forex" {
		t.Errorf("unexpected label %q", CategoryForex.Label())
	}
}
