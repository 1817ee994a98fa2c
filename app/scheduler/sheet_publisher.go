package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	businessflow "github.com/kapustota/btlz-wb-test-vasily-b/business_flow"
	"github.com/kapustota/btlz-wb-test-vasily-b/config"
)

// SheetPublisher pushes the current-rates projection to the configured
// spreadsheet endpoints. Publishing is a separate failure domain from
// reconciliation: a failed push never rolls back what the batch committed.
type SheetPublisher interface {
	PublishCurrentRates(ctx context.Context) error
}

type httpSheetPublisher struct {
	cfg    config.SheetsConfig
	flow   businessflow.TariffFlow
	client *http.Client
	logger *log.Logger
}

func NewSheetPublisher(cfg config.SheetsConfig, flow businessflow.TariffFlow, logger *log.Logger) SheetPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &httpSheetPublisher{
		cfg:  cfg,
		flow: flow,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// PublishCurrentRates renders the projection once and uploads the workbook to
// every configured endpoint. Per-endpoint failures are collected so one bad
// endpoint does not starve the others.
func (p *httpSheetPublisher) PublishCurrentRates(ctx context.Context) error {
	if !p.cfg.Enabled || len(p.cfg.Endpoints) == 0 {
		return nil
	}

	filename, workbook, err := p.flow.ExportCurrentRates(ctx)
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}

	var failed int
	for _, endpoint := range p.cfg.Endpoints {
		if err := p.upload(ctx, endpoint, filename, workbook); err != nil {
			failed++
			p.logger.Printf("sheets: upload to %s failed: %v", endpoint, err)
			continue
		}
		p.logger.Printf("sheets: uploaded %s (%d bytes) to %s", filename, len(workbook), endpoint)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sheet uploads failed", failed, len(p.cfg.Endpoints))
	}
	return nil
}

func (p *httpSheetPublisher) upload(ctx context.Context, endpoint, filename string, workbook []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(workbook))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if p.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}
	return nil
}
