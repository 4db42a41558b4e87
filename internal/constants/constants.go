package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	ReconcileTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// DefaultBatchSize is the page size for batch migration jobs.
	DefaultBatchSize = 1000

	// HistoryDaysDefault and HistoryDaysMax bound the chart projection
	// window served by the API.
	HistoryDaysDefault = 50
	HistoryDaysMax     = 365
)
