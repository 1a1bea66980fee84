package ingest

import "time"

// StopReason says why a run terminated cleanly
type StopReason string

const (
	// StopFeedExhausted means the feed returned no more items
	StopFeedExhausted StopReason = "feed_exhausted"

	// StopCaughtUp means a page produced no new archived media, so the
	// run reached previously completed history
	StopCaughtUp StopReason = "caught_up"
)

// Report summarizes one ingestion run
type Report struct {
	StopReason      StopReason
	Pages           int
	ItemsSeen       int
	Downloaded      int
	SkippedExisting int
	SkippedGone     int
	LastCursor      string
	StartedAt       time.Time
	FinishedAt      time.Time
}
