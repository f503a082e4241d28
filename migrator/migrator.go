// Package migrator implements the batched migration engine: cursor-based
// pagination over the source table, per-row transformation, and idempotent
// conflict-key upserts into the destination, with progress accounting that
// survives partial failures.
package migrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"ads_migrator/models"
	"ads_migrator/storage"
)

// FetchPolicy selects how the loop reacts to a failed page fetch.
type FetchPolicy string

const (
	// FetchRetryInPlace re-issues the same request after a fixed delay on a
	// transient error, with no retry cap. No record is ever skipped, but a
	// persistent outage stalls the run. Non-transient fetch errors abort.
	FetchRetryInPlace FetchPolicy = "retry"

	// FetchSkipAndAdvance moves the cursor one page-width past any failed
	// fetch and counts the failure. Guarantees termination, but can drop a
	// page of records; the run aborts once failures exceed the threshold.
	FetchSkipAndAdvance FetchPolicy = "skip"
)

const (
	DefaultBatchSize        = 500
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = 1000 * time.Millisecond
	DefaultMaxFetchFailures = 10
)

// Options configures a migration run. Zero values fall back to the defaults
// above; the zero FetchPolicy is retry-in-place.
type Options struct {
	BatchSize   int
	FetchPolicy FetchPolicy

	// SkipExisting switches the writer from upsert-overwrite to
	// insert-new-only: the batch is pre-filtered against ids already in the
	// destination, and existing rows are left untouched (their
	// opensearch_sync flag is NOT reset).
	SkipExisting bool

	MaxRetries       int           // upsert attempts per batch
	RetryDelay       time.Duration // fixed delay between retries, fetch and upsert alike
	MaxFetchFailures int           // skip policy: abort once failures exceed this

	// OnProgress, if set, is called with a counter snapshot after each batch.
	OnProgress ProgressFunc

	// OnBatchError, if set, is called when a batch is given up on (upsert
	// retries exhausted or a fetch failure counted under the skip policy).
	OnBatchError func(lastID int64, err error)
}

// Migrator drives the migration against an injected store. It holds no
// datastore state of its own; the cursor and counters live only for the
// duration of one Run.
type Migrator struct {
	store storage.AdStore
	opts  Options
}

func New(store storage.AdStore, opts Options) *Migrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FetchPolicy == "" {
		opts.FetchPolicy = FetchRetryInPlace
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxFetchFailures <= 0 {
		opts.MaxFetchFailures = DefaultMaxFetchFailures
	}
	return &Migrator{store: store, opts: opts}
}

// Run migrates the whole source table, batch by batch, until an empty page
// signals exhaustion. Per-batch failures are converted to counters and the
// loop proceeds; only the initial count, a non-transient fetch error under
// the retry policy, and the skip policy's failure threshold end the run
// early. The returned Progress is final either way.
func (m *Migrator) Run(ctx context.Context) (Progress, error) {
	total, err := m.store.CountScrapedAds(ctx)
	if err != nil {
		return Progress{}, fmt.Errorf("count source rows: %w", err)
	}

	start := time.Now()
	p := Progress{Total: total}
	var lastID int64
	fetchFailures := 0

	for {
		ads, err := m.store.ScrapedAdsAfter(ctx, lastID, m.opts.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				p.Elapsed = time.Since(start)
				return p, ctx.Err()
			}

			if m.opts.FetchPolicy == FetchSkipAndAdvance {
				fetchFailures++
				p.Errors++
				log.Printf("Fetch after id %d failed (%d/%d): %v", lastID, fetchFailures, m.opts.MaxFetchFailures, err)
				if m.opts.OnBatchError != nil {
					m.opts.OnBatchError(lastID, err)
				}
				if fetchFailures > m.opts.MaxFetchFailures {
					p.Elapsed = time.Since(start)
					return p, fmt.Errorf("aborting after %d fetch failures: %w", fetchFailures, err)
				}
				lastID += int64(m.opts.BatchSize)
				continue
			}

			// Retry-in-place: wait out transient failures at the same cursor.
			if !storage.IsTransient(err) {
				p.Elapsed = time.Since(start)
				return p, fmt.Errorf("fetch after id %d: %w", lastID, err)
			}
			log.Printf("Transient fetch error after id %d, retrying: %v", lastID, err)
			if err := sleep(ctx, m.opts.RetryDelay); err != nil {
				p.Elapsed = time.Since(start)
				return p, err
			}
			continue
		}

		if len(ads) == 0 {
			break
		}

		live := make([]models.LiveAd, 0, len(ads))
		for i := range ads {
			live = append(live, TransformAd(&ads[i]))
		}

		if m.opts.SkipExisting {
			live, err = m.filterExisting(ctx, live, &p)
			if err != nil {
				// Existence check failed; fall back to writing the whole
				// batch, which the upsert keeps correct anyway.
				p.Errors++
				log.Printf("Existing-id check failed, upserting full batch: %v", err)
			}
		}

		if len(live) > 0 {
			if err := m.upsertWithRetry(ctx, live); err != nil {
				p.Errors++
				log.Printf("Giving up on batch ending at id %d: %v", ads[len(ads)-1].ID, err)
				if m.opts.OnBatchError != nil {
					m.opts.OnBatchError(ads[len(ads)-1].ID, err)
				}
			} else {
				p.Upserted += int64(len(live))
			}
		}

		p.Processed += int64(len(ads))
		lastID = ads[len(ads)-1].ID
		p.LastID = lastID
		p.Elapsed = time.Since(start)

		if m.opts.OnProgress != nil {
			m.opts.OnProgress(p)
		}
	}

	p.Elapsed = time.Since(start)
	return p, nil
}

// filterExisting narrows a transformed batch to the ids not yet present in
// the destination. On a failed check it returns the batch unchanged along
// with the error.
func (m *Migrator) filterExisting(ctx context.Context, live []models.LiveAd, p *Progress) ([]models.LiveAd, error) {
	ids := make([]int64, len(live))
	for i := range live {
		ids[i] = live[i].ID
	}

	existing, err := m.store.ExistingLiveAdIDs(ctx, ids)
	if err != nil {
		return live, err
	}

	filtered := live[:0]
	for i := range live {
		if existing[live[i].ID] {
			p.Skipped++
			continue
		}
		filtered = append(filtered, live[i])
	}
	return filtered, nil
}

func (m *Migrator) upsertWithRetry(ctx context.Context, batch []models.LiveAd) error {
	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxRetries; attempt++ {
		lastErr = m.store.UpsertLiveAds(ctx, batch)
		if lastErr == nil {
			return nil
		}
		if attempt < m.opts.MaxRetries {
			log.Printf("Upsert attempt %d/%d failed: %v", attempt, m.opts.MaxRetries, lastErr)
			if err := sleep(ctx, m.opts.RetryDelay); err != nil {
				return lastErr
			}
		}
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", m.opts.MaxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
