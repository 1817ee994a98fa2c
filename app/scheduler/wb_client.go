// Package scheduler
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/config"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
)

// wbBoxTariffsEnvelope mirrors the upstream response shape. All numeric
// fields arrive as locale-formatted strings with a comma decimal separator.
type wbBoxTariffsEnvelope struct {
	Response struct {
		Data struct {
			DtNextBox     string               `json:"dtNextBox"`
			DtTillMax     string               `json:"dtTillMax"`
			WarehouseList []wbWarehouseTariffs `json:"warehouseList"`
		} `json:"data"`
	} `json:"response"`
}

type wbWarehouseTariffs struct {
	GeoName       string `json:"geoName"`
	WarehouseName string `json:"warehouseName"`

	BoxDeliveryBase     string `json:"boxDeliveryBase"`
	BoxDeliveryCoefExpr string `json:"boxDeliveryCoefExpr"`
	BoxDeliveryLiter    string `json:"boxDeliveryLiter"`

	BoxDeliveryMarketplaceBase     string `json:"boxDeliveryMarketplaceBase"`
	BoxDeliveryMarketplaceCoefExpr string `json:"boxDeliveryMarketplaceCoefExpr"`
	BoxDeliveryMarketplaceLiter    string `json:"boxDeliveryMarketplaceLiter"`

	BoxStorageBase     string `json:"boxStorageBase"`
	BoxStorageCoefExpr string `json:"boxStorageCoefExpr"`
	BoxStorageLiter    string `json:"boxStorageLiter"`
}

// WBClient fetches one box-tariffs snapshot from the upstream API.
type WBClient interface {
	FetchBoxTariffs(ctx context.Context, date time.Time) (*dto.TariffsSnapshot, error)
}

type httpWBClient struct {
	cfg    config.WBAPIConfig
	client *http.Client
}

func NewWBClient(cfg config.WBAPIConfig) WBClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpWBClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchBoxTariffs GETs /api/v1/tariffs/box for the given date and normalizes
// the response into a snapshot. Any malformed numeric field or a missing
// horizon date fails the whole fetch; the caller treats that as batch-fatal.
func (c *httpWBClient) FetchBoxTariffs(ctx context.Context, date time.Time) (*dto.TariffsSnapshot, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "/api/v1/tariffs/box")
	if err != nil {
		return nil, fmt.Errorf("build tariffs URL: %w", err)
	}
	endpoint += "?date=" + url.QueryEscape(date.Format(utils.WBDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tariffs request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tariffs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read tariffs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tariffs API returned status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var envelope wbBoxTariffsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode tariffs response: %w", err)
	}

	return normalizeSnapshot(&envelope)
}

// normalizeSnapshot converts the string-typed upstream payload into the
// numeric snapshot the reconciler consumes. The horizon is dtTillMax, the
// furthest date the upstream guarantees the rates stay valid; dtNextBox is
// accepted as a fallback for older payloads that omit dtTillMax.
func normalizeSnapshot(envelope *wbBoxTariffsEnvelope) (*dto.TariffsSnapshot, error) {
	data := &envelope.Response.Data

	horizonRaw := data.DtTillMax
	if horizonRaw == "" {
		horizonRaw = data.DtNextBox
	}
	if horizonRaw == "" {
		return nil, fmt.Errorf("tariffs response carries no horizon date")
	}
	horizon, err := time.ParseInLocation(utils.WBDateLayout, horizonRaw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse horizon date %q: %w", horizonRaw, err)
	}

	snapshot := &dto.TariffsSnapshot{
		HorizonDate: horizon,
		Warehouses:  make([]dto.WarehouseTariff, 0, len(data.WarehouseList)),
	}

	for i := range data.WarehouseList {
		w := &data.WarehouseList[i]
		rates, err := normalizeRates(w)
		if err != nil {
			return nil, fmt.Errorf("warehouse %q/%q: %w", w.GeoName, w.WarehouseName, err)
		}
		snapshot.Warehouses = append(snapshot.Warehouses, dto.WarehouseTariff{
			GeoName:       w.GeoName,
			WarehouseName: w.WarehouseName,
			Rates:         rates,
		})
	}

	return snapshot, nil
}

func normalizeRates(w *wbWarehouseTariffs) (dto.RateVector, error) {
	var rates dto.RateVector

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"boxDeliveryBase", w.BoxDeliveryBase, &rates.DeliveryBase},
		{"boxDeliveryCoefExpr", w.BoxDeliveryCoefExpr, &rates.DeliveryCoef},
		{"boxDeliveryLiter", w.BoxDeliveryLiter, &rates.DeliveryLiter},
		{"boxDeliveryMarketplaceBase", w.BoxDeliveryMarketplaceBase, &rates.MarketplaceDeliveryBase},
		{"boxDeliveryMarketplaceCoefExpr", w.BoxDeliveryMarketplaceCoefExpr, &rates.MarketplaceDeliveryCoef},
		{"boxDeliveryMarketplaceLiter", w.BoxDeliveryMarketplaceLiter, &rates.MarketplaceDeliveryLiter},
		{"boxStorageBase", w.BoxStorageBase, &rates.StorageBase},
		{"boxStorageCoefExpr", w.BoxStorageCoefExpr, &rates.StorageCoef},
		{"boxStorageLiter", w.BoxStorageLiter, &rates.StorageLiter},
	}

	for _, field := range fields {
		v, err := utils.ParseLocaleDecimal(field.raw)
		if err != nil {
			return dto.RateVector{}, fmt.Errorf("field %s: %w", field.name, err)
		}
		*field.dst = v
	}

	return rates, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
