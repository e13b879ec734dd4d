package system

import (
	"testing"
	"time"
)

func TestClock_Now(t *testing.T) {
	c := New()
	before := time.Now().UTC().Add(-time.Second)
	got := c.Now()
	after := time.Now().UTC().Add(time.Second)
	if got.Before(before) || got.After(after) {
		t.Fatalf("clock returned implausible time: %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC time, got %v", got.Location())
	}
}
