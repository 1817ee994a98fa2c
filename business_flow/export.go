package businessflow

import (
	"context"
	"fmt"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
	"github.com/xuri/excelize/v2"
)

// CurrentRatesSheetName is the worksheet the publisher and the export
// endpoint write the projection into.
const CurrentRatesSheetName = "stocks_coefs"

var currentRatesHeader = []string{
	"geo_name", "warehouse_name", "start_date", "end_date",
	"delivery_base", "delivery_coef", "delivery_liter",
	"marketplace_delivery_base", "marketplace_delivery_coef", "marketplace_delivery_liter",
	"storage_base", "storage_coef", "storage_liter",
}

// ExportCurrentRates renders the current-rates projection into an xlsx
// workbook and returns a suggested filename plus the workbook bytes.
func (f *TariffFlowImpl) ExportCurrentRates(ctx context.Context) (string, []byte, error) {
	resp, err := f.ListCurrentRates(ctx)
	if err != nil {
		return "", nil, err
	}

	bs, err := RenderCurrentRatesWorkbook(resp.Items)
	if err != nil {
		return "", nil, NewBusinessError("CURRENT_RATES_EXPORT_FAILED", "Failed to render current rates workbook", err)
	}

	filename := fmt.Sprintf("box_rates_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, bs, nil
}

// RenderCurrentRatesWorkbook builds the xlsx workbook for the given
// projection rows. Row order is preserved from the query (storage coefficient
// ascending, then region name). A nil end date renders as "unbounded".
func RenderCurrentRatesWorkbook(items []dto.CurrentRateItem) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	idx, err := xl.NewSheet(CurrentRatesSheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	xl.SetActiveSheet(idx)
	if err := xl.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, title := range currentRatesHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := xl.SetCellValue(CurrentRatesSheetName, cell, title); err != nil {
			return nil, err
		}
	}

	for i, item := range items {
		endDate := "unbounded"
		if item.EndDate != nil {
			endDate = item.EndDate.Format(utils.WBDateLayout)
		}

		values := []any{
			item.GeoName,
			item.WarehouseName,
			item.StartDate.Format(utils.WBDateLayout),
			endDate,
			item.Rates.DeliveryBase,
			item.Rates.DeliveryCoef,
			item.Rates.DeliveryLiter,
			item.Rates.MarketplaceDeliveryBase,
			item.Rates.MarketplaceDeliveryCoef,
			item.Rates.MarketplaceDeliveryLiter,
			item.Rates.StorageBase,
			item.Rates.StorageCoef,
			item.Rates.StorageLiter,
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := xl.SetCellValue(CurrentRatesSheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
