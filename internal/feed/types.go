package feed

import "time"

// Priority is the coarse ordinal attached to a FetchTask. Higher values
// are dequeued first; see taskComparator in queue.go.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// ParsePriority maps a user-facing string onto a Priority. Anything
// unrecognized, including "normal" or an empty string, maps to Normal.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Task is a single queued fetch. It is in-memory only: created when a
// caller queues a URL, destroyed once fetched-to-completion or once
// retries are exhausted.
type Task struct {
	URL        string
	Priority   Priority
	RetryCount uint32
}

// ParsedFeed is what the Parser yields for a successfully parsed
// document. It is transient — never persisted directly, only used to
// populate FeedEntry rows.
type ParsedFeed struct {
	Title       string
	Description *string
	URL         *string
	Entries     []ParsedEntry
}

// ParsedEntry is one item/entry inside a ParsedFeed, in document order.
type ParsedEntry struct {
	Title       *string
	Description *string
	Link        *string
	Published   *string // RFC3339, if the source feed carried a date
	Content     *string
}

// Result is what a worker produces for one Task: either a ParsedFeed
// or a FetchError, plus bookkeeping the coordinator needs.
type Result struct {
	URL           string
	Feed          *ParsedFeed
	Err           *FetchError
	FetchDuration time.Duration
	RetryCount    uint32
}

// ErrorType enumerates the RefreshError.error_type taxonomy from
// SPEC_FULL.md §10 / spec.md §7.
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeParse          ErrorType = "parse"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeRateLimited    ErrorType = "rate_limited"
	ErrorTypeTooManyRetries ErrorType = "too_many_retries"
	ErrorTypeDatabase       ErrorType = "database"
)

// FetchError is the typed error taxonomy a worker can produce. It
// implements the error interface so it can flow through ordinary Go
// error-handling, while still exposing the category the coordinator
// needs to build a RefreshError.
type FetchError struct {
	Type    ErrorType
	Message string
}

func (e *FetchError) Error() string {
	switch e.Type {
	case ErrorTypeNetwork:
		return "network error: " + e.Message
	case ErrorTypeParse:
		return "parse error: " + e.Message
	case ErrorTypeTimeout:
		return "request timeout"
	case ErrorTypeRateLimited:
		return "rate limited"
	case ErrorTypeTooManyRetries:
		return "too many retries"
	case ErrorTypeDatabase:
		return "database error: " + e.Message
	default:
		return e.Message
	}
}

func networkError(msg string) *FetchError { return &FetchError{Type: ErrorTypeNetwork, Message: msg} }
func parseError(msg string) *FetchError   { return &FetchError{Type: ErrorTypeParse, Message: msg} }
func timeoutError() *FetchError           { return &FetchError{Type: ErrorTypeTimeout} }
func rateLimitedError() *FetchError       { return &FetchError{Type: ErrorTypeRateLimited} }
func tooManyRetriesError() *FetchError    { return &FetchError{Type: ErrorTypeTooManyRetries} }

// RefreshError is one failure recorded against a refresh operation.
type RefreshError struct {
	FeedURL    string    `json:"feed_url"`
	FeedTitle  *string   `json:"feed_title,omitempty"`
	Message    string    `json:"error_message"`
	Type       ErrorType `json:"error_type"`
	RetryCount uint32    `json:"retry_count"`
	Timestamp  string    `json:"timestamp"` // RFC3339
}

// FeedRefreshStatus is the per-feed outcome recorded in a RefreshSummary.
type FeedRefreshStatus struct {
	FeedID        int64         `json:"feed_id"`
	FeedURL       string        `json:"feed_url"`
	FeedTitle     *string       `json:"feed_title,omitempty"`
	Status        string        `json:"status"` // "success", "failed", "skipped"
	EntriesAdded  int           `json:"entries_added"`
	LastFetchedAt string        `json:"last_fetched_at"` // RFC3339
	Error         *RefreshError `json:"error,omitempty"`
}

// RefreshSummary is the terminal record of a completed refresh.
type RefreshSummary struct {
	Timestamp       string              `json:"timestamp"` // RFC3339
	TotalProcessed  int                 `json:"total_processed"`
	SuccessfulCount int                 `json:"successful_count"`
	FailedCount     int                 `json:"failed_count"`
	DurationSeconds uint64              `json:"duration_seconds"`
	FeedsUpdated    []FeedRefreshStatus `json:"feeds_updated"`
	Errors          []RefreshError      `json:"errors"`
}

// RefreshProgress is the live, read-only snapshot returned to callers.
type RefreshProgress struct {
	IsActive               bool           `json:"is_active"`
	TotalFeeds             int            `json:"total_feeds"`
	CompletedFeeds         int            `json:"completed_feeds"`
	FailedFeeds            int            `json:"failed_feeds"`
	CurrentFeedURL         *string        `json:"current_feed_url,omitempty"`
	ProgressPercentage     float64        `json:"progress_percentage"`
	EstimatedTimeRemaining *uint64        `json:"estimated_time_remaining,omitempty"`
	Errors                 []RefreshError `json:"errors"`
}

func refreshErrorFromFetchError(url string, title *string, err *FetchError, retryCount uint32) RefreshError {
	return RefreshError{
		FeedURL:    url,
		FeedTitle:  title,
		Message:    err.Error(),
		Type:       err.Type,
		RetryCount: retryCount,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}
