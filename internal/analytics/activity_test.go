package analytics

import (
	"testing"
	"time"

	"hidehate/internal/model"
)

func TestHourlyActivityBuckets(t *testing.T) {
	base := time.Date(2025, 3, 1, 14, 10, 0, 0, time.UTC)
	events := []model.ActivityEvent{
		{Timestamp: base.Unix(), Type: "seen"},
		{Timestamp: base.Add(5 * time.Minute).Unix(), Type: "seen"},
		{Timestamp: base.Add(20 * time.Minute).Unix(), Type: "reveal"},
		{Timestamp: base.Add(90 * time.Minute).Unix(), Type: "post"},
	}
	b := HourlyActivity(events)
	keys := SortedBucketKeys(b)
	if len(keys) != 2 {
		t.Fatalf("buckets: %v", keys)
	}
	first := b[keys[0]]
	if first["seen"] != 2 || first["reveal"] != 1 {
		t.Fatalf("first bucket: %v", first)
	}
	if b[keys[1]]["post"] != 1 {
		t.Fatalf("second bucket: %v", b[keys[1]])
	}
	if !keys[0].Before(keys[1]) {
		t.Fatal("keys not sorted")
	}
}
