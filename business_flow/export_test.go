package businessflow

import (
	"bytes"
	"testing"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRenderCurrentRatesWorkbook(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	items := []dto.CurrentRateItem{
		{
			GeoName:       "Центральный федеральный округ",
			WarehouseName: "Коледино",
			StartDate:     start,
			EndDate:       utils.ToPtr(end),
			Rates:         uniformVector(48),
		},
		{
			GeoName:       "Приволжский федеральный округ",
			WarehouseName: "Казань",
			StartDate:     start,
			EndDate:       nil,
			Rates:         uniformVector(55.5),
		},
	}

	bs, err := RenderCurrentRatesWorkbook(items)
	require.NoError(t, err)
	require.NotEmpty(t, bs)

	xl, err := excelize.OpenReader(bytes.NewReader(bs))
	require.NoError(t, err)
	defer xl.Close()

	sheets := xl.GetSheetList()
	require.Equal(t, []string{CurrentRatesSheetName}, sheets)

	rows, err := xl.GetRows(CurrentRatesSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 items

	assert.Equal(t, currentRatesHeader, rows[0])

	assert.Equal(t, "Коледино", rows[1][1])
	assert.Equal(t, "2026-08-01", rows[1][2])
	assert.Equal(t, "2026-09-30", rows[1][3])
	assert.Equal(t, "48", rows[1][4])

	// Open period renders as unbounded
	assert.Equal(t, "Казань", rows[2][1])
	assert.Equal(t, "unbounded", rows[2][3])
	assert.Equal(t, "55.5", rows[2][10])
}

func TestRenderCurrentRatesWorkbookEmpty(t *testing.T) {
	bs, err := RenderCurrentRatesWorkbook(nil)
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(bs))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows(CurrentRatesSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
