package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoxRateRepositoryImpl implements BoxRateRepository
type BoxRateRepositoryImpl struct {
	*BaseRepository[models.BoxRate, models.BoxRateFilter]
}

// NewBoxRateRepository creates a new repository for box rates
func NewBoxRateRepository(db *gorm.DB) BoxRateRepository {
	return &BoxRateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BoxRate, models.BoxRateFilter](db),
	}
}

// ByPeriod retrieves the rate row bound to the (warehouse, period) pair.
func (r *BoxRateRepositoryImpl) ByPeriod(ctx context.Context, warehouseID, periodID uint) (*models.BoxRate, error) {
	db := r.getDB(ctx)

	var rate models.BoxRate
	err := db.Where("warehouse_id = ? AND tariff_period_id = ?", warehouseID, periodID).First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find box rate for warehouse %d period %d: %w", warehouseID, periodID, err)
	}
	return &rate, nil
}

// Upsert writes the rate row, updating the nine rate fields on conflict of
// the (warehouse_id, tariff_period_id) unique pair. The reconciliation
// algorithm always mints a new period on change, so the conflict branch only
// fires when the same period is re-processed.
func (r *BoxRateRepositoryImpl) Upsert(ctx context.Context, rate *models.BoxRate) error {
	db := r.getDB(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "warehouse_id"}, {Name: "tariff_period_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"delivery_base", "delivery_coef", "delivery_liter",
			"marketplace_delivery_base", "marketplace_delivery_coef", "marketplace_delivery_liter",
			"storage_base", "storage_coef", "storage_liter",
		}),
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert box rate for warehouse %d period %d: %w", rate.WarehouseID, rate.TariffPeriodID, err)
	}
	return nil
}

// ListActive returns the current-rates projection for the publishing side:
// every (warehouse, period, rate) triple whose period is open or ends at or
// after the given instant, ordered by storage coefficient ascending, then by
// region name ascending.
func (r *BoxRateRepositoryImpl) ListActive(ctx context.Context, at time.Time) ([]*ActiveRate, error) {
	db := r.getDB(ctx)

	var rows []*ActiveRate
	err := db.Raw(`
		SELECT
			w.geo_name,
			w.warehouse_name,
			tp.start_date,
			tp.end_date,
			br.delivery_base,
			br.delivery_coef,
			br.delivery_liter,
			br.marketplace_delivery_base,
			br.marketplace_delivery_coef,
			br.marketplace_delivery_liter,
			br.storage_base,
			br.storage_coef,
			br.storage_liter
		FROM box_rates br
		JOIN warehouses w ON w.id = br.warehouse_id
		JOIN tariff_periods tp ON tp.id = br.tariff_period_id
		WHERE tp.end_date IS NULL OR tp.end_date >= ?
		ORDER BY br.storage_coef ASC, w.geo_name ASC
	`, at).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active box rates: %w", err)
	}
	return rows, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BoxRateRepositoryImpl) applyFilter(db *gorm.DB, filter models.BoxRateFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.WarehouseID != nil {
		db = db.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.TariffPeriodID != nil {
		db = db.Where("tariff_period_id = ?", *filter.TariffPeriodID)
	}
	return db
}

// ByFilter retrieves box rates based on filter criteria.
func (r *BoxRateRepositoryImpl) ByFilter(ctx context.Context, filter models.BoxRateFilter, orderBy string, limit, offset int) ([]*models.BoxRate, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.BoxRate{}), filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.BoxRate
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of box rates matching the filter.
func (r *BoxRateRepositoryImpl) Count(ctx context.Context, filter models.BoxRateFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.BoxRate{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any box rate matching the filter exists.
func (r *BoxRateRepositoryImpl) Exists(ctx context.Context, filter models.BoxRateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
