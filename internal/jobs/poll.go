package jobs

import (
	"context"
	"strconv"
	"time"

	"hidehate/internal/logging"
	"hidehate/internal/metrics"
	"hidehate/internal/model"
	"hidehate/internal/store/timelinedb"
	"hidehate/internal/timeline"
)

const cursorKey = "poll:last_create_at"

// Fetcher is the read side of the API the poll loop needs.
type Fetcher interface {
	FetchTimelines(ctx context.Context) ([]timeline.Record, error)
}

// RunFetchOnce fetches the timeline, records posts newer than the cursor as
// "seen" events, saves a snapshot, and advances the cursor to the newest
// create_at observed.
func RunFetchOnce(ctx context.Context, db *timelinedb.DB, api Fetcher, adapter timeline.Adapter) error {
	var since int64
	if v, err := db.LoadCursor(ctx, cursorKey); err == nil && v != "" {
		if ts, err2 := strconv.ParseInt(v, 10, 64); err2 == nil {
			since = ts
		}
	}

	start := time.Now()
	recs, err := api.FetchTimelines(ctx)
	if err != nil {
		return err
	}
	metrics.ObserveFetchDuration(start)

	now := time.Now().UTC()
	newest := since
	var added int
	for _, r := range recs {
		if r.CreateAt <= since {
			continue
		}
		_ = db.PutEvent(ctx, model.ActivityEvent{
			Timestamp: now.Unix(),
			Type:      "seen",
			PostID:    r.PostDocID,
			AuthorID:  r.UserID,
			Flagged:   r.MayHate,
		})
		added++
		if r.CreateAt > newest {
			newest = r.CreateAt
		}
	}
	_ = db.SaveSnapshot(ctx, now, adapter.Adapt(recs, ""))
	if newest > since {
		_ = db.SaveCursor(ctx, cursorKey, strconv.FormatInt(newest, 10))
	}
	logging.Info("fetch_once", map[string]any{"posts": len(recs), "new": added})
	return nil
}

// RunFetchLoop runs RunFetchOnce on a ticker until ctx is cancelled.
func RunFetchLoop(ctx context.Context, db *timelinedb.DB, api Fetcher, adapter timeline.Adapter, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if err := RunFetchOnce(ctx, db, api, adapter); err != nil {
		logging.Error("fetch_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("fetch_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := RunFetchOnce(ctx, db, api, adapter); err != nil {
				logging.Error("fetch_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
