package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWBClient struct {
	snapshot *dto.TariffsSnapshot
	err      error
	calls    int
}

func (f *fakeWBClient) FetchBoxTariffs(ctx context.Context, date time.Time) (*dto.TariffsSnapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

type fakeFlow struct {
	stubTariffFlow
	summary      *dto.ReconcileSummary
	reconcileErr error
	blockOn      chan struct{}
	calls        int
}

func (f *fakeFlow) ReconcileSnapshot(ctx context.Context, snapshot *dto.TariffsSnapshot) (*dto.ReconcileSummary, error) {
	f.calls++
	if f.blockOn != nil {
		<-f.blockOn
	}
	return f.summary, f.reconcileErr
}

type fakePublisher struct {
	err   error
	calls int
}

func (f *fakePublisher) PublishCurrentRates(ctx context.Context) error {
	f.calls++
	return f.err
}

func testSnapshot() *dto.TariffsSnapshot {
	return &dto.TariffsSnapshot{
		HorizonDate: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Warehouses: []dto.WarehouseTariff{
			{GeoName: "Region", WarehouseName: "Depot"},
		},
	}
}

func newTestScheduler(client WBClient, flow *fakeFlow, publisher *fakePublisher) *TariffScheduler {
	return &TariffScheduler{
		flow:      flow,
		client:    client,
		publisher: publisher,
		logger:    log.New(io.Discard, "", 0),
		interval:  time.Hour,
	}
}

func TestRunNow(t *testing.T) {
	client := &fakeWBClient{snapshot: testSnapshot()}
	flow := &fakeFlow{summary: &dto.ReconcileSummary{WarehousesSeen: 1, PeriodsCreated: 1, RatesCreated: 1}}
	publisher := &fakePublisher{}

	s := newTestScheduler(client, flow, publisher)

	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.WarehousesSeen)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, flow.calls)
	assert.Equal(t, 1, publisher.calls)
}

func TestRunNowFetchFailureSkipsReconcile(t *testing.T) {
	client := &fakeWBClient{err: errors.New("upstream down")}
	flow := &fakeFlow{}
	publisher := &fakePublisher{}

	s := newTestScheduler(client, flow, publisher)

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, flow.calls)
	assert.Equal(t, 0, publisher.calls)
}

func TestRunNowReconcileFailureSkipsPublish(t *testing.T) {
	client := &fakeWBClient{snapshot: testSnapshot()}
	flow := &fakeFlow{reconcileErr: errors.New("deadlock")}
	publisher := &fakePublisher{}

	s := newTestScheduler(client, flow, publisher)

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, publisher.calls)
}

func TestRunNowPublishFailureKeepsReconciliation(t *testing.T) {
	client := &fakeWBClient{snapshot: testSnapshot()}
	flow := &fakeFlow{summary: &dto.ReconcileSummary{WarehousesSeen: 1}}
	publisher := &fakePublisher{err: errors.New("sheet endpoint down")}

	s := newTestScheduler(client, flow, publisher)

	// The batch is committed before publishing, so the summary comes back clean.
	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.WarehousesSeen)
	assert.Equal(t, 1, publisher.calls)
}

func TestRunNowRejectsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	client := &fakeWBClient{snapshot: testSnapshot()}
	flow := &fakeFlow{summary: &dto.ReconcileSummary{}, blockOn: release}
	publisher := &fakePublisher{}

	s := newTestScheduler(client, flow, publisher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background())
	}()

	// Wait until the first run is inside the reconcile call.
	require.Eventually(t, func() bool {
		return s.inFlight.Load()
	}, time.Second, time.Millisecond)

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrBatchInFlight)

	close(release)
	<-done

	// With the first run finished, the guard is released again.
	_, err = s.RunNow(context.Background())
	require.NoError(t, err)
}
