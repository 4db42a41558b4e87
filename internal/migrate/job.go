// Package migrate holds the resumable batch jobs that repair data
// drift in the score and snapshot collections. Every job is dry-run by
// default, pages through its collection on a monotonic id cursor, and
// reports scanned/matched/changed/skipped counts whether or not it
// wrote anything.
package migrate

import (
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"

	"github.com/rs/zerolog"
)

type Options struct {
	// Apply enables destructive writes. Off by default: a run without
	// it only reports what it would change.
	Apply bool

	// BatchSize is the page size; DefaultBatchSize when zero.
	BatchSize int

	// Limit stops the job after this many changed records. Zero means
	// no limit. Already-committed batches stay committed.
	Limit int

	// DropUnknown lets the modifier migration drop unrecognized
	// entries instead of skipping the whole record.
	DropUnknown bool

	// Cursor resumes a prior partial run: scanning starts after this
	// id. For jobs that sweep several tables, the cursor applies to the
	// first table swept; later tables start from the beginning.
	Cursor int64

	// Table restricts the orphan sweep to one auxiliary table
	// (score_data or score_stats). Empty sweeps both. Combine with
	// Cursor to resume an aborted sweep unambiguously.
	Table string
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return constants.DefaultBatchSize
}

// Progress is the cursor state threaded through a job run. LastID is
// the resume point an operator can feed back via Options.Cursor.
type Progress struct {
	LastID  int64
	Scanned int
	Matched int
	Changed int
	Skipped int
}

func (p Progress) log(logger zerolog.Logger, job string, applied bool) {
	logger.Info().
		Str("job", job).
		Bool("applied", applied).
		Int64("cursor", p.LastID).
		Int("scanned", p.Scanned).
		Int("matched", p.Matched).
		Int("changed", p.Changed).
		Int("skipped", p.Skipped).
		Msg("batch job finished")
}

// limitReached reports whether the operator's early-stop condition has
// been hit.
func (p Progress) limitReached(opts Options) bool {
	return opts.Limit > 0 && p.Changed >= opts.Limit
}
