package dto

import (
	"time"
)

// RateVector is the nine-field box rate figure set for one warehouse, already
// normalized to numeric form.
type RateVector struct {
	DeliveryBase  float64 `json:"delivery_base"`
	DeliveryCoef  float64 `json:"delivery_coef"`
	DeliveryLiter float64 `json:"delivery_liter"`

	MarketplaceDeliveryBase  float64 `json:"marketplace_delivery_base"`
	MarketplaceDeliveryCoef  float64 `json:"marketplace_delivery_coef"`
	MarketplaceDeliveryLiter float64 `json:"marketplace_delivery_liter"`

	StorageBase  float64 `json:"storage_base"`
	StorageCoef  float64 `json:"storage_coef"`
	StorageLiter float64 `json:"storage_liter"`
}

// Fields returns the nine values in a fixed order for comparison.
func (v RateVector) Fields() [9]float64 {
	return [9]float64{
		v.DeliveryBase, v.DeliveryCoef, v.DeliveryLiter,
		v.MarketplaceDeliveryBase, v.MarketplaceDeliveryCoef, v.MarketplaceDeliveryLiter,
		v.StorageBase, v.StorageCoef, v.StorageLiter,
	}
}

// WarehouseTariff is one warehouse's entry in a snapshot.
type WarehouseTariff struct {
	GeoName       string     `json:"geo_name" validate:"required"`
	WarehouseName string     `json:"warehouse_name" validate:"required"`
	Rates         RateVector `json:"rates"`
}

// TariffsSnapshot is one fetched batch: every warehouse's rates plus the
// single horizon date the upstream claims the rates stay valid until.
type TariffsSnapshot struct {
	HorizonDate time.Time         `json:"horizon_date" validate:"required"`
	Warehouses  []WarehouseTariff `json:"warehouses" validate:"required,dive"`
}

// ReconcileSummary aggregates what one batch run touched. Period and rate
// counts reflect only rows created in this run, not every warehouse seen.
type ReconcileSummary struct {
	PeriodsCreated int `json:"periods_created"`
	WarehousesSeen int `json:"warehouses_seen"`
	RatesCreated   int `json:"rates_created"`
}

// CurrentRateItem is one row of the published current-rates projection.
// A nil EndDate renders as "unbounded".
type CurrentRateItem struct {
	GeoName       string     `json:"geo_name"`
	WarehouseName string     `json:"warehouse_name"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Rates         RateVector `json:"rates"`
}

// ListCurrentRatesResponse wraps the current-rates projection.
type ListCurrentRatesResponse struct {
	Message string            `json:"message"`
	AsOf    time.Time         `json:"as_of"`
	Items   []CurrentRateItem `json:"items"`
}

// CurrentRatesQuery narrows the current-rates listing.
type CurrentRatesQuery struct {
	GeoName string `query:"geo_name" json:"geo_name" validate:"omitempty,min=1,max=255"`
	Limit   int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=1000"`
}

// RunBatchResponse is returned by the manual batch trigger.
type RunBatchResponse struct {
	Message string           `json:"message"`
	Summary ReconcileSummary `json:"summary"`
}
