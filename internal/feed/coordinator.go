package feed

import (
	"sync"
	"time"
)

// RefreshCoordinator tracks one refresh-all-feeds operation end to
// end: it owns the live RefreshProgressState the UI polls and emits
// exactly one RefreshSummary when the operation finishes. Grounded on
// the teacher's Progress type (internal/feed/progress.go) — a single
// mutex guarding a plain struct, snapshotted by value on read — scaled
// up to the richer state spec.md §4.5 requires.
type RefreshCoordinator struct {
	mu sync.RWMutex

	active    bool
	total     int
	completed int
	failed    int
	current   *string
	errors    []RefreshError
	startedAt time.Time

	statuses    []FeedRefreshStatus
	lastSummary *RefreshSummary
}

// NewRefreshCoordinator returns an idle coordinator.
func NewRefreshCoordinator() *RefreshCoordinator {
	return &RefreshCoordinator{}
}

// StartRefreshOperation transitions Idle -> Active. Calling it while
// already active resets the operation. The refresh handlers call it
// once per refresh-all or refresh-single request; concurrent calls are
// not serialized beyond the coordinator's own lock.
func (c *RefreshCoordinator) StartRefreshOperation(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = true
	c.total = total
	c.completed = 0
	c.failed = 0
	c.current = nil
	c.errors = nil
	c.statuses = make([]FeedRefreshStatus, 0, total)
	c.startedAt = time.Now()
}

// SetCurrentFeed records which feed URL is presently being fetched,
// for progress reporting. Safe to call with nil to clear it.
func (c *RefreshCoordinator) SetCurrentFeed(url *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = url
}

// CompleteFeedRefresh records the terminal outcome of one feed within
// the active operation. It increments completed_feeds and, when that
// reaches total_feeds, finalizes the operation and produces exactly
// one RefreshSummary — the predicate check and the increment happen
// under the same write lock so two concurrent completions can never
// both observe "last one in" (spec.md §4.5).
func (c *RefreshCoordinator) CompleteFeedRefresh(status FeedRefreshStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Once the operation is no longer active (either it already hit
	// total_feeds and finalized, or AbortRefresh cut it short), a late
	// straggler from an in-flight fetch must not advance the counters
	// past total or re-finalize a second summary (SPEC_FULL.md §9
	// abort semantics).
	if !c.active {
		return
	}

	c.completed++
	if status.Status == "failed" {
		c.failed++
	}
	if status.Error != nil {
		c.errors = append(c.errors, *status.Error)
	}
	c.statuses = append(c.statuses, status)

	if c.completed >= c.total {
		c.finalizeLocked()
	}
}

// finalizeLocked must be called with mu held for writing.
func (c *RefreshCoordinator) finalizeLocked() {
	c.active = false
	c.current = nil

	successful := 0
	for _, s := range c.statuses {
		if s.Status == "success" {
			successful++
		}
	}

	c.lastSummary = &RefreshSummary{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		TotalProcessed:  len(c.statuses),
		SuccessfulCount: successful,
		FailedCount:     c.failed,
		DurationSeconds: uint64(time.Since(c.startedAt).Seconds()),
		FeedsUpdated:    append([]FeedRefreshStatus(nil), c.statuses...),
		Errors:          append([]RefreshError(nil), c.errors...),
	}
}

// AbortRefresh force-finalizes an in-progress operation, e.g. on
// shutdown. Idempotent if no operation is active.
func (c *RefreshCoordinator) AbortRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.finalizeLocked()
}

// GetRefreshProgress returns a point-in-time snapshot. completed is
// clamped to total so a total miscount never reports over
// 100% (spec.md §4.5 edge cases).
func (c *RefreshCoordinator) GetRefreshProgress() RefreshProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()

	completed := c.completed
	if completed > c.total {
		completed = c.total
	}

	pct := 0.0
	if c.total > 0 {
		pct = (float64(completed) / float64(c.total)) * 100
	}

	var eta *uint64
	if c.active && completed > 0 && completed < c.total {
		elapsed := time.Since(c.startedAt)
		perFeed := elapsed / time.Duration(completed)
		remaining := perFeed * time.Duration(c.total-completed)
		secs := uint64(remaining.Seconds())
		eta = &secs
	}

	return RefreshProgress{
		IsActive:               c.active,
		TotalFeeds:             c.total,
		CompletedFeeds:         completed,
		FailedFeeds:            c.failed,
		CurrentFeedURL:         c.current,
		ProgressPercentage:     pct,
		EstimatedTimeRemaining: eta,
		Errors:                 append([]RefreshError(nil), c.errors...),
	}
}

// GetLastRefreshSummary returns the most recently finalized summary,
// or nil if no refresh has completed yet.
func (c *RefreshCoordinator) GetLastRefreshSummary() *RefreshSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSummary
}
