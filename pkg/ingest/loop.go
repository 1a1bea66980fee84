// Package ingest drives the archiving run: it walks the liked feed page
// by page, downloads photo attachments that are not yet in the ledger,
// and persists a resume cursor so an interrupted run picks up exactly
// where it stopped.
package ingest

import (
	"context"
	"strings"
	"time"

	"likevault/pkg/archive"
	errs "likevault/pkg/errors"
	"likevault/pkg/feed"
	"likevault/pkg/ledger"
	"likevault/pkg/logger"
	"likevault/pkg/ratelimit"
)

// FeedClient lists liked items and fetches item details
type FeedClient interface {
	ListLikedItems(ctx context.Context, userID, cursor string) (*feed.Page, error)
	FetchItemDetail(ctx context.Context, itemID string) (*feed.ItemDetail, error)
}

// MediaFetcher downloads the bytes behind one media URL. ok is false,
// with a nil error, when the content is gone upstream.
type MediaFetcher interface {
	Download(ctx context.Context, sourceURL string) (data []byte, ok bool, err error)
}

// Ledger is the idempotency record store plus the per-user cursor slot
type Ledger interface {
	GetRecord(ctx context.Context, key string) (*ledger.ArchiveRecord, error)
	PutRecord(ctx context.Context, record *ledger.ArchiveRecord) error
	GetCursor(ctx context.Context, userID string) (token string, ok bool, err error)
	PutCursor(ctx context.Context, userID, token string) error
}

// Sink writes bytes to a root-relative path and reports the write time
type Sink interface {
	Write(relPath string, data []byte) (time.Time, error)
}

// Options configures one ingestion run
type Options struct {
	// UserID is the account whose liked feed is walked
	UserID string
	// ResetCursor ignores the persisted cursor and starts from the feed head
	ResetCursor bool
	// Location is the timezone used to date-partition archive paths
	Location *time.Location
}

// Loop orchestrates one single-threaded ingestion run
type Loop struct {
	client  FeedClient
	fetcher MediaFetcher
	ledger  Ledger
	sink    Sink
	pacer   ratelimit.Pacer
	opts    Options
	logger  logger.Logger
}

// New creates an ingestion loop over explicit collaborators
func New(client FeedClient, fetcher MediaFetcher, ldg Ledger, sink Sink, pacer ratelimit.Pacer, opts Options, log logger.Logger) *Loop {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Loop{
		client:  client,
		fetcher: fetcher,
		ledger:  ldg,
		sink:    sink,
		pacer:   pacer,
		opts:    opts,
		logger:  log,
	}
}

// Run walks the feed until it is exhausted or the run catches up with
// previously archived history. Any failure that is not a classified
// skip aborts the run after a best-effort persist of the cursor for
// the page in progress, so the next run re-fetches the same page; the
// ledger makes that re-processing produce no duplicates.
//
// The catch-up stop assumes the feed is reverse-chronological: a page
// with zero newly archived media means older pages were covered by a
// prior run. That is a heuristic of the upstream feed, not a contract.
func (l *Loop) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	cursor := ""
	if l.opts.ResetCursor {
		l.logger.Info("cursor reset requested, starting from feed head")
	} else {
		token, ok, err := l.ledger.GetCursor(ctx, l.opts.UserID)
		if err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		if ok {
			cursor = token
		}
	}

	l.logger.InfoWithFields("ingestion run starting", map[string]interface{}{
		"user_id": l.opts.UserID,
		"cursor":  cursor,
	})

	for {
		page, err := l.client.ListLikedItems(ctx, l.opts.UserID, cursor)
		if err != nil {
			return l.abort(ctx, report, cursor, err)
		}

		// Feed exhausted: stop without touching the cursor
		if len(page.Items) == 0 {
			return l.finish(report, StopFeedExhausted, cursor)
		}

		report.Pages++
		anyNewMedia := false

		for _, item := range page.Items {
			report.ItemsSeen++

			newMedia, err := l.processItem(ctx, item.ID, report)
			if err != nil {
				return l.abort(ctx, report, cursor, err)
			}
			if newMedia {
				anyNewMedia = true
			}
		}

		// Advance the cursor before deciding whether to stop, so a
		// later resume never re-derives an already-passed page.
		cursor = page.NextToken
		if err := l.ledger.PutCursor(ctx, l.opts.UserID, cursor); err != nil {
			report.FinishedAt = time.Now()
			report.LastCursor = cursor
			return report, err
		}
		report.LastCursor = cursor

		if !anyNewMedia {
			return l.finish(report, StopCaughtUp, cursor)
		}
		if page.NextToken == "" {
			return l.finish(report, StopFeedExhausted, cursor)
		}
	}
}

// processItem archives every not-yet-recorded photo attachment of one
// item. It returns true when at least one attachment was newly archived.
func (l *Loop) processItem(ctx context.Context, itemID string, report *Report) (bool, error) {
	detail, err := l.client.FetchItemDetail(ctx, itemID)
	if err != nil {
		if errs.IsNotFound(err) {
			l.logger.DebugWithFields("item gone, skipping", map[string]interface{}{
				"item_id": itemID,
			})
			return false, nil
		}
		return false, err
	}

	if len(detail.Media) == 0 {
		return false, nil
	}

	createdAt := detail.CreatedAt.In(l.opts.Location)
	anyNew := false

	for idx, att := range detail.Media {
		if att.Kind != feed.MediaKindPhoto {
			continue
		}

		key := ledger.RecordKey(detail.ID, idx)

		existing, err := l.ledger.GetRecord(ctx, key)
		if err != nil {
			return anyNew, err
		}
		if existing != nil {
			l.logger.DebugWithFields("already archived, skipping", map[string]interface{}{
				"key": key,
			})
			report.SkippedExisting++
			continue
		}

		data, ok, err := l.fetcher.Download(ctx, att.SourceURL)
		if err != nil {
			return anyNew, err
		}
		if !ok {
			report.SkippedGone++
			continue
		}

		relPath := archive.Path(createdAt, detail.ID, idx)
		writeTime, err := l.sink.Write(relPath, data)
		if err != nil {
			return anyNew, err
		}

		record := &ledger.ArchiveRecord{
			Key:          key,
			CreatedAt:    createdAt,
			Text:         detail.Text,
			AuthorName:   detail.AuthorName,
			AuthorHandle: detail.AuthorHandle,
			Hashtags:     strings.Join(detail.Hashtags, ","),
			WriteTime:    writeTime,
		}
		if err := l.ledger.PutRecord(ctx, record); err != nil {
			return anyNew, err
		}

		l.logger.InfoWithFields("archived attachment", map[string]interface{}{
			"key":  key,
			"path": relPath,
			"size": len(data),
		})

		report.Downloaded++
		anyNew = true

		// Courtesy wait before hitting the media host again
		if err := l.pacer.Wait(ctx); err != nil {
			return anyNew, err
		}
	}

	return anyNew, nil
}

// finish closes out a clean termination
func (l *Loop) finish(report *Report, reason StopReason, cursor string) (*Report, error) {
	report.StopReason = reason
	report.FinishedAt = time.Now()

	l.logger.InfoWithFields("ingestion run complete", map[string]interface{}{
		"stop_reason": string(reason),
		"pages":       report.Pages,
		"items":       report.ItemsSeen,
		"downloaded":  report.Downloaded,
		"cursor":      cursor,
	})

	return report, nil
}

// abort persists the cursor for the page in progress, surfaces it for
// the operator, and propagates the cause as a hard failure.
func (l *Loop) abort(ctx context.Context, report *Report, cursor string, cause error) (*Report, error) {
	l.logger.ErrorWithFields("ingestion run aborting", map[string]interface{}{
		"cursor": cursor,
		"error":  cause.Error(),
	})

	if err := l.ledger.PutCursor(ctx, l.opts.UserID, cursor); err != nil {
		l.logger.WithError(err).Warn("failed to persist cursor during abort")
	}

	report.LastCursor = cursor
	report.FinishedAt = time.Now()
	return report, cause
}
