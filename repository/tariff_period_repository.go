package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	"gorm.io/gorm"
)

// ErrOverlappingPeriods signals that more than one period covers the same
// instant for one warehouse. The reconciliation algorithm never produces
// this state; seeing it means the table was mutated outside the application.
var ErrOverlappingPeriods = errors.New("multiple active tariff periods for warehouse")

// TariffPeriodRepositoryImpl implements TariffPeriodRepository
type TariffPeriodRepositoryImpl struct {
	*BaseRepository[models.TariffPeriod, models.TariffPeriodFilter]
}

// NewTariffPeriodRepository creates a new repository for tariff periods
func NewTariffPeriodRepository(db *gorm.DB) TariffPeriodRepository {
	return &TariffPeriodRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TariffPeriod, models.TariffPeriodFilter](db),
	}
}

// ActiveForWarehouse returns the period covering at for the given warehouse.
// The warehouse linkage rides on box_rates since every period is bound to
// exactly one rate row. Up to two rows are fetched so an overlap is detected
// instead of silently picking one.
func (r *TariffPeriodRepositoryImpl) ActiveForWarehouse(ctx context.Context, warehouseID uint, at time.Time) (*models.TariffPeriod, error) {
	db := r.getDB(ctx)

	var rows []*models.TariffPeriod
	err := db.Raw(`
		SELECT tp.id, tp.start_date, tp.end_date
		FROM tariff_periods tp
		JOIN box_rates br ON br.tariff_period_id = tp.id
		WHERE br.warehouse_id = ?
		  AND tp.start_date <= ?
		  AND (tp.end_date IS NULL OR tp.end_date >= ?)
		ORDER BY tp.start_date DESC
		LIMIT 2
	`, warehouseID, at, at).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to locate active period for warehouse %d: %w", warehouseID, err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("warehouse %d at %s: %w", warehouseID, at.Format(time.RFC3339), ErrOverlappingPeriods)
	}
}

// ExtendTo moves the period's end to the given horizon.
func (r *TariffPeriodRepositoryImpl) ExtendTo(ctx context.Context, periodID uint, horizon time.Time) error {
	return r.setEnd(ctx, periodID, horizon)
}

// CloseAt seals the period's upper bound at the given instant.
func (r *TariffPeriodRepositoryImpl) CloseAt(ctx context.Context, periodID uint, at time.Time) error {
	return r.setEnd(ctx, periodID, at)
}

func (r *TariffPeriodRepositoryImpl) setEnd(ctx context.Context, periodID uint, end time.Time) error {
	db := r.getDB(ctx)

	res := db.Model(&models.TariffPeriod{}).Where("id = ?", periodID).Update("end_date", end)
	if res.Error != nil {
		return fmt.Errorf("failed to update end of period %d: %w", periodID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("tariff period %d not found", periodID)
	}
	return nil
}

// applyFilter applies filter conditions to the GORM query
func (r *TariffPeriodRepositoryImpl) applyFilter(db *gorm.DB, filter models.TariffPeriodFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.StartedAfter != nil {
		db = db.Where("start_date >= ?", *filter.StartedAfter)
	}
	if filter.StartedBefore != nil {
		db = db.Where("start_date <= ?", *filter.StartedBefore)
	}
	if filter.Open != nil {
		if *filter.Open {
			db = db.Where("end_date IS NULL")
		} else {
			db = db.Where("end_date IS NOT NULL")
		}
	}
	return db
}

// ByFilter retrieves tariff periods based on filter criteria.
func (r *TariffPeriodRepositoryImpl) ByFilter(ctx context.Context, filter models.TariffPeriodFilter, orderBy string, limit, offset int) ([]*models.TariffPeriod, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TariffPeriod{}), filter)

	if orderBy == "" {
		orderBy = "start_date DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.TariffPeriod
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tariff periods matching the filter.
func (r *TariffPeriodRepositoryImpl) Count(ctx context.Context, filter models.TariffPeriodFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TariffPeriod{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any tariff period matching the filter exists.
func (r *TariffPeriodRepositoryImpl) Exists(ctx context.Context, filter models.TariffPeriodFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
