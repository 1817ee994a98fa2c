package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	"github.com/kapustota/btlz-wb-test-vasily-b/repository"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TariffFlow defines the tariff reconciliation use cases.
type TariffFlow interface {
	// ReconcileSnapshot folds one upstream snapshot into the versioned rate
	// history. The whole snapshot runs in a single transaction; any failure
	// rolls back every warehouse's changes for the run.
	ReconcileSnapshot(ctx context.Context, snapshot *dto.TariffsSnapshot) (*dto.ReconcileSummary, error)
	// ListCurrentRates returns the currently active rates for publishing.
	ListCurrentRates(ctx context.Context) (*dto.ListCurrentRatesResponse, error)
	// ExportCurrentRates renders the current rates into an xlsx workbook.
	ExportCurrentRates(ctx context.Context) (string, []byte, error)
}

type TariffFlowImpl struct {
	warehouseRepo repository.WarehouseRepository
	periodRepo    repository.TariffPeriodRepository
	rateRepo      repository.BoxRateRepository
	db            *gorm.DB
	rc            *redis.Client
	logger        *log.Logger
}

// NewTariffFlow creates the tariff flow. rc may be nil, in which case the
// current-rates projection is read from the database on every call.
func NewTariffFlow(
	warehouseRepo repository.WarehouseRepository,
	periodRepo repository.TariffPeriodRepository,
	rateRepo repository.BoxRateRepository,
	db *gorm.DB,
	rc *redis.Client,
	logger *log.Logger,
) TariffFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &TariffFlowImpl{
		warehouseRepo: warehouseRepo,
		periodRepo:    periodRepo,
		rateRepo:      rateRepo,
		db:            db,
		rc:            rc,
		logger:        logger,
	}
}

// ReconcileSnapshot walks the snapshot warehouse by warehouse. For each one it
// resolves the warehouse row, locates the period covering the batch instant,
// and either opens a first period, extends the current one to the new horizon
// (rates unchanged within tolerance), or rolls over: closes the current period
// at the batch instant and opens a new one carrying the new rate row.
func (f *TariffFlowImpl) ReconcileSnapshot(ctx context.Context, snapshot *dto.TariffsSnapshot) (*dto.ReconcileSummary, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	// The batch instant is captured once and reused for every decision and
	// every row written, so boundary comparisons cannot disagree within one
	// batch.
	now := utils.UTCNow()
	horizon := utils.TimeToUTC(snapshot.HorizonDate)

	// The upstream horizon is a date at UTC midnight, so a stale feed can hand
	// us a horizon at or before the batch instant. Writing it would mint an
	// inverted [now, horizon) period that is never active and would recreate
	// period + rate rows on every following tick.
	if !horizon.After(now) {
		return nil, NewBusinessError("SNAPSHOT_HORIZON_PAST", "Snapshot horizon date is not after the batch instant", ErrHorizonBeforeNow)
	}

	summary := &dto.ReconcileSummary{}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := repository.AdvisoryXactLock(txCtx, repository.ReconcileLockKey); err != nil {
			return err
		}

		for i := range snapshot.Warehouses {
			wt := &snapshot.Warehouses[i]
			if err := f.reconcileWarehouse(txCtx, wt, now, horizon, summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("TARIFF_RECONCILE_FAILED", "Failed to reconcile tariff snapshot", err)
	}

	f.invalidateCurrentRatesCache(ctx)

	return summary, nil
}

func (f *TariffFlowImpl) reconcileWarehouse(ctx context.Context, wt *dto.WarehouseTariff, now, horizon time.Time, summary *dto.ReconcileSummary) error {
	warehouse, err := f.warehouseRepo.ResolveByNames(ctx, wt.GeoName, wt.WarehouseName)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return NewBusinessErrorf("WAREHOUSE_RESOLVE_FAILED", "warehouse %q/%q vanished during resolution", ErrWarehouseUnresolved, wt.GeoName, wt.WarehouseName)
	}
	summary.WarehousesSeen++

	active, err := f.periodRepo.ActiveForWarehouse(ctx, warehouse.ID, now)
	if err != nil {
		// Overlapping periods are a data-integrity violation; surfaced, never
		// resolved by picking an arbitrary row.
		f.logger.Printf("tariff: locating active period for warehouse %d (%s/%s) failed: %v",
			warehouse.ID, wt.GeoName, wt.WarehouseName, err)
		return err
	}

	if active == nil {
		// First observation of this warehouse: open [now, horizon).
		return f.openPeriod(ctx, warehouse.ID, wt.Rates, now, horizon, summary)
	}

	existing, err := f.rateRepo.ByPeriod(ctx, warehouse.ID, active.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		// Every period is supposed to carry exactly one rate row. Treat the
		// orphan period like a change: close it and start clean.
		f.logger.Printf("tariff: period %d for warehouse %d has no rate row, rolling over", active.ID, warehouse.ID)
		if err := f.periodRepo.CloseAt(ctx, active.ID, now); err != nil {
			return err
		}
		return f.openPeriod(ctx, warehouse.ID, wt.Rates, now, horizon, summary)
	}

	if RatesMatch(rateVectorOf(existing), wt.Rates) {
		// Unchanged within tolerance: the current period simply stays
		// authoritative up to the new horizon. No new rows.
		return f.periodRepo.ExtendTo(ctx, active.ID, horizon)
	}

	// Material change: close the old period at the batch instant, then open a
	// fresh period carrying the incoming vector.
	if err := f.periodRepo.CloseAt(ctx, active.ID, now); err != nil {
		return err
	}
	return f.openPeriod(ctx, warehouse.ID, wt.Rates, now, horizon, summary)
}

func (f *TariffFlowImpl) openPeriod(ctx context.Context, warehouseID uint, rates dto.RateVector, start, horizon time.Time, summary *dto.ReconcileSummary) error {
	period := &models.TariffPeriod{
		StartDate: start,
		EndDate:   utils.ToPtr(horizon),
	}
	if err := f.periodRepo.Save(ctx, period); err != nil {
		return err
	}
	summary.PeriodsCreated++

	rate := &models.BoxRate{
		WarehouseID:    warehouseID,
		TariffPeriodID: period.ID,

		DeliveryBase:  rates.DeliveryBase,
		DeliveryCoef:  rates.DeliveryCoef,
		DeliveryLiter: rates.DeliveryLiter,

		MarketplaceDeliveryBase:  rates.MarketplaceDeliveryBase,
		MarketplaceDeliveryCoef:  rates.MarketplaceDeliveryCoef,
		MarketplaceDeliveryLiter: rates.MarketplaceDeliveryLiter,

		StorageBase:  rates.StorageBase,
		StorageCoef:  rates.StorageCoef,
		StorageLiter: rates.StorageLiter,
	}
	if err := f.rateRepo.Upsert(ctx, rate); err != nil {
		return err
	}
	summary.RatesCreated++

	return nil
}

// ListCurrentRates returns the active-rates projection, read through the
// redis cache when one is configured. The cache is invalidated after every
// successful reconciliation.
func (f *TariffFlowImpl) ListCurrentRates(ctx context.Context) (*dto.ListCurrentRatesResponse, error) {
	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, utils.CurrentRatesCacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.ListCurrentRatesResponse
			if err := json.Unmarshal(bs, &out); err == nil {
				out.Message = "Current rates retrieved from cache"
				return &out, nil
			}
		}
	}

	now := utils.UTCNow()
	rows, err := f.rateRepo.ListActive(ctx, now)
	if err != nil {
		return nil, NewBusinessError("CURRENT_RATES_LIST_FAILED", "Failed to list current rates", err)
	}

	out := &dto.ListCurrentRatesResponse{
		Message: "Current rates retrieved",
		AsOf:    now,
		Items:   make([]dto.CurrentRateItem, 0, len(rows)),
	}
	for _, row := range rows {
		out.Items = append(out.Items, dto.CurrentRateItem{
			GeoName:       row.GeoName,
			WarehouseName: row.WarehouseName,
			StartDate:     row.StartDate,
			EndDate:       row.EndDate,
			Rates: dto.RateVector{
				DeliveryBase:  row.DeliveryBase,
				DeliveryCoef:  row.DeliveryCoef,
				DeliveryLiter: row.DeliveryLiter,

				MarketplaceDeliveryBase:  row.MarketplaceDeliveryBase,
				MarketplaceDeliveryCoef:  row.MarketplaceDeliveryCoef,
				MarketplaceDeliveryLiter: row.MarketplaceDeliveryLiter,

				StorageBase:  row.StorageBase,
				StorageCoef:  row.StorageCoef,
				StorageLiter: row.StorageLiter,
			},
		})
	}

	if f.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			_ = f.rc.Set(ctx, utils.CurrentRatesCacheKey, bs, utils.CurrentRatesCacheTTL).Err()
		}
	}

	return out, nil
}

func (f *TariffFlowImpl) invalidateCurrentRatesCache(ctx context.Context) {
	if f.rc == nil {
		return
	}
	if err := f.rc.Del(ctx, utils.CurrentRatesCacheKey).Err(); err != nil {
		f.logger.Printf("tariff: failed to invalidate current rates cache: %v", err)
	}
}

func validateSnapshot(snapshot *dto.TariffsSnapshot) error {
	if snapshot == nil {
		return NewBusinessError("SNAPSHOT_NIL", "Snapshot is required", ErrSnapshotNil)
	}
	if snapshot.HorizonDate.IsZero() {
		return NewBusinessError("SNAPSHOT_HORIZON_MISSING", "Snapshot horizon date is required", ErrHorizonDateMissing)
	}
	if len(snapshot.Warehouses) == 0 {
		return NewBusinessError("SNAPSHOT_EMPTY", "Snapshot contains no warehouses", ErrSnapshotEmpty)
	}
	for i := range snapshot.Warehouses {
		wt := &snapshot.Warehouses[i]
		if strings.TrimSpace(wt.GeoName) == "" {
			return NewBusinessError("SNAPSHOT_GEO_NAME_EMPTY", "Snapshot row has an empty geo name", ErrGeoNameEmpty)
		}
		if strings.TrimSpace(wt.WarehouseName) == "" {
			return NewBusinessError("SNAPSHOT_WAREHOUSE_NAME_EMPTY", "Snapshot row has an empty warehouse name", ErrWarehouseNameEmpty)
		}
	}
	return nil
}

func rateVectorOf(r *models.BoxRate) dto.RateVector {
	return dto.RateVector{
		DeliveryBase:  r.DeliveryBase,
		DeliveryCoef:  r.DeliveryCoef,
		DeliveryLiter: r.DeliveryLiter,

		MarketplaceDeliveryBase:  r.MarketplaceDeliveryBase,
		MarketplaceDeliveryCoef:  r.MarketplaceDeliveryCoef,
		MarketplaceDeliveryLiter: r.MarketplaceDeliveryLiter,

		StorageBase:  r.StorageBase,
		StorageCoef:  r.StorageCoef,
		StorageLiter: r.StorageLiter,
	}
}
