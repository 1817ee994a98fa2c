package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tariffsResponseBody = `{
	"response": {
		"data": {
			"dtNextBox": "2026-09-01",
			"dtTillMax": "2026-09-30",
			"warehouseList": [
				{
					"geoName": "Центральный федеральный округ",
					"warehouseName": "Коледино",
					"boxDeliveryBase": "48",
					"boxDeliveryCoefExpr": "160",
					"boxDeliveryLiter": "11,2",
					"boxDeliveryMarketplaceBase": "40,5",
					"boxDeliveryMarketplaceCoefExpr": "125",
					"boxDeliveryMarketplaceLiter": "9",
					"boxStorageBase": "0,14",
					"boxStorageCoefExpr": "115",
					"boxStorageLiter": "0,07"
				}
			]
		}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (WBClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewWBClient(config.WBAPIConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
	return client, srv
}

func TestFetchBoxTariffs(t *testing.T) {
	var gotPath, gotAuth, gotDate string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tariffsResponseBody))
	})

	date := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	snapshot, err := client.FetchBoxTariffs(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/tariffs/box", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "2026-08-29", gotDate)

	// dtTillMax wins over dtNextBox as the horizon
	assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), snapshot.HorizonDate)

	require.Len(t, snapshot.Warehouses, 1)
	w := snapshot.Warehouses[0]
	assert.Equal(t, "Центральный федеральный округ", w.GeoName)
	assert.Equal(t, "Коледино", w.WarehouseName)
	assert.InDelta(t, 48, w.Rates.DeliveryBase, 1e-9)
	assert.InDelta(t, 160, w.Rates.DeliveryCoef, 1e-9)
	assert.InDelta(t, 11.2, w.Rates.DeliveryLiter, 1e-9)
	assert.InDelta(t, 40.5, w.Rates.MarketplaceDeliveryBase, 1e-9)
	assert.InDelta(t, 0.14, w.Rates.StorageBase, 1e-9)
	assert.InDelta(t, 0.07, w.Rates.StorageLiter, 1e-9)
}

func TestFetchBoxTariffsFallsBackToNextBoxHorizon(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":{"dtNextBox":"2026-09-01","warehouseList":[]}}}`))
	})

	snapshot, err := client.FetchBoxTariffs(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), snapshot.HorizonDate)
}

func TestFetchBoxTariffsMissingHorizonIsFatal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":{"warehouseList":[]}}}`))
	})

	_, err := client.FetchBoxTariffs(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizon")
}

func TestFetchBoxTariffsMalformedDecimalIsFatal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"data":{"dtTillMax":"2026-09-30","warehouseList":[
			{"geoName":"X","warehouseName":"Y","boxDeliveryBase":"not-a-number"}
		]}}}`))
	})

	_, err := client.FetchBoxTariffs(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boxDeliveryBase")
}

func TestFetchBoxTariffsUpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := client.FetchBoxTariffs(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
