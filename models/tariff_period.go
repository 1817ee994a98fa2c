package models

import (
	"time"
)

// TariffPeriod is a half-open interval [StartDate, EndDate) during which one
// rate vector is authoritative for one warehouse. EndDate == nil means the
// period is still open. The owning warehouse is reachable through the single
// BoxRate row bound to the period.
type TariffPeriod struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	StartDate time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate   *time.Time `gorm:"index" json:"end_date,omitempty"`

	// Relationships
	BoxRates []BoxRate `gorm:"foreignKey:TariffPeriodID" json:"box_rates,omitempty"`
}

// TariffPeriodFilter represents filter criteria for tariff period queries
type TariffPeriodFilter struct {
	ID            *uint      `json:"id,omitempty"`
	StartedAfter  *time.Time `json:"started_after,omitempty"`
	StartedBefore *time.Time `json:"started_before,omitempty"`
	Open          *bool      `json:"open,omitempty"`
}

// IsOpen reports whether the period has no upper bound yet.
func (p *TariffPeriod) IsOpen() bool {
	return p.EndDate == nil
}

// CoversAt reports whether the period is active at the given instant:
// StartDate <= at and (EndDate is nil or EndDate >= at).
func (p *TariffPeriod) CoversAt(at time.Time) bool {
	if p.StartDate.After(at) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(at)
}
