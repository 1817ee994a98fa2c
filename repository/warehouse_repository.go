package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WarehouseRepositoryImpl implements WarehouseRepository
type WarehouseRepositoryImpl struct {
	*BaseRepository[models.Warehouse, models.WarehouseFilter]
}

// NewWarehouseRepository creates a new repository for warehouses
func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &WarehouseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Warehouse, models.WarehouseFilter](db),
	}
}

// ByNames retrieves a warehouse by its natural key.
func (r *WarehouseRepositoryImpl) ByNames(ctx context.Context, geoName, warehouseName string) (*models.Warehouse, error) {
	db := r.getDB(ctx)

	var w models.Warehouse
	err := db.Where("geo_name = ? AND warehouse_name = ?", geoName, warehouseName).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find warehouse %q/%q: %w", geoName, warehouseName, err)
	}
	return &w, nil
}

// ResolveByNames looks a warehouse up by its natural key and inserts it on
// first sight. The insert ignores a duplicate-key conflict and re-reads, so
// the call stays idempotent even when two runs race on the same key.
func (r *WarehouseRepositoryImpl) ResolveByNames(ctx context.Context, geoName, warehouseName string) (*models.Warehouse, error) {
	existing, err := r.ByNames(ctx, geoName, warehouseName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	db := r.getDB(ctx)
	w := models.Warehouse{
		GeoName:       geoName,
		WarehouseName: warehouseName,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "geo_name"}, {Name: "warehouse_name"}},
		DoNothing: true,
	}).Create(&w).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse %q/%q: %w", geoName, warehouseName, err)
	}
	if w.ID != 0 {
		return &w, nil
	}

	// Conflict path: the row appeared between lookup and insert.
	return r.ByNames(ctx, geoName, warehouseName)
}

// applyFilter applies filter conditions to the GORM query
func (r *WarehouseRepositoryImpl) applyFilter(db *gorm.DB, filter models.WarehouseFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.GeoName != nil {
		db = db.Where("geo_name = ?", *filter.GeoName)
	}
	if filter.WarehouseName != nil {
		db = db.Where("warehouse_name = ?", *filter.WarehouseName)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// ByFilter retrieves warehouses based on filter criteria.
func (r *WarehouseRepositoryImpl) ByFilter(ctx context.Context, filter models.WarehouseFilter, orderBy string, limit, offset int) ([]*models.Warehouse, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Warehouse{}), filter)

	if orderBy == "" {
		orderBy = "geo_name ASC, warehouse_name ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Warehouse
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of warehouses matching the filter.
func (r *WarehouseRepositoryImpl) Count(ctx context.Context, filter models.WarehouseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Warehouse{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any warehouse matching the filter exists.
func (r *WarehouseRepositoryImpl) Exists(ctx context.Context, filter models.WarehouseFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
