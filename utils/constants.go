package utils

import (
	"time"
)

// Tariff reconciliation constants
const (
	// RateTolerance is the absolute error bound under which two rate values
	// are considered equal. It absorbs rounding noise introduced by the
	// upstream feed serializing decimals as locale-formatted strings.
	// A difference of exactly RateTolerance still counts as a match.
	RateTolerance = 0.01

	// DefaultSchedulerInterval is the default cadence of the tariff scheduler (1 hour)
	DefaultSchedulerInterval = time.Hour

	// WBDateLayout is the date format used by the upstream tariffs API
	WBDateLayout = "2006-01-02"
)

// Cache keys
const (
	// CurrentRatesCacheKey holds the serialized current-rates projection
	CurrentRatesCacheKey = "tariff:current_rates"

	// CurrentRatesCacheTTL bounds staleness if invalidation is ever missed
	CurrentRatesCacheTTL = 2 * time.Hour
)
