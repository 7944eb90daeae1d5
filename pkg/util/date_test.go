package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2015-01-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}

	if _, ok := ParseDate(""); ok {
		t.Fatalf("empty string should not parse")
	}
	if _, ok := ParseDate("15/01/2015"); ok {
		t.Fatalf("wrong layout should not parse")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{4.6149, 4.61},
		{4.625, 4.63},
		{-5.074, -5.07},
		{0, 0},
		{12.3, 12.3},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Fatalf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
