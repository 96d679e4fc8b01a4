package timeutil

import (
	"testing"
	"time"
)

func TestNewClockDefaultsToJohannesburg(t *testing.T) {
	c := NewClock("")
	_, offset := c.Now().Zone()
	if offset != 2*60*60 {
		t.Fatalf("expected UTC+2, got offset %d", offset)
	}
}

func TestNewClockUnknownZoneFallsBack(t *testing.T) {
	c := NewClock("Nowhere/Special")
	if c.Location().String() != "Nowhere/Special" {
		t.Fatalf("unexpected location %s", c.Location())
	}
	_, offset := c.Now().Zone()
	if offset != 2*60*60 {
		t.Fatalf("expected fallback UTC+2, got %d", offset)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 3, 15, 23, 30, 0, 0, time.UTC)
	c := FixedClock(at)
	if !c.Now().Equal(at) {
		t.Fatalf("expected %v, got %v", at, c.Now())
	}
	var zero Clock
	if zero.Location() != time.Local {
		t.Fatal("zero clock should use local time")
	}
}
