package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher returns canned snapshots, failing any SKU code in failCodes.
type stubFetcher struct {
	failCodes map[string]bool
	calls     int64
}

func (f *stubFetcher) FetchSnapshot(ctx context.Context, ref upstream.SkuRef) *upstream.FetchResult {
	atomic.AddInt64(&f.calls, 1)
	if f.failCodes[ref.SkuCode] {
		return &upstream.FetchResult{SkuCode: ref.SkuCode, Reason: "endpoint unavailable"}
	}
	return &upstream.FetchResult{
		SkuCode: ref.SkuCode,
		Success: true,
		Snapshot: &upstream.SkuSnapshot{
			SkuCode:           ref.SkuCode,
			Name:              "Product " + ref.SkuCode,
			UpstreamProductID: "p-" + ref.SkuCode,
			Regions: []upstream.RegionStock{
				{RegionID: "r1", RegionName: "North", Quantity: 100},
			},
			FetchedAt: time.Now(),
			Source:    "list-primary",
		},
	}
}

func TestFetchBatchPartialFailure(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{failCodes: map[string]bool{"SKU-7": true}}
	svc := NewIngestService(db, fetcher, NewTimeSeriesService(db))

	refs := make([]upstream.SkuRef, 0, 12)
	for i := 1; i <= 12; i++ {
		refs = append(refs, upstream.SkuRef{SkuCode: fmt.Sprintf("SKU-%d", i)})
	}

	result := svc.FetchBatch(context.Background(), refs)
	assert.Len(t, result.Succeeded, 11)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "SKU-7", result.Failed[0].SkuCode)
	assert.Equal(t, "endpoint unavailable", result.Failed[0].Reason)

	var count int64
	require.NoError(t, db.Model(&models.TrackedSku{}).Count(&count).Error)
	assert.EqualValues(t, 11, count, "failed sku must not be tracked")
}

func TestFetchAllMergesWatchlist(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{}
	svc := NewIngestService(db, fetcher, NewTimeSeriesService(db))

	tracked := models.TrackedSku{SkuCode: "SKU-1"}
	require.NoError(t, db.Create(&tracked).Error)
	svc.SetWatchlist([]string{"SKU-1", "SKU-NEW", ""})

	result, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SKU-1", "SKU-NEW"}, result.Succeeded)
	assert.EqualValues(t, 2, atomic.LoadInt64(&fetcher.calls), "tracked sku on the watchlist must not be fetched twice")

	var sku models.TrackedSku
	require.NoError(t, db.Where("sku_code = ?", "SKU-NEW").First(&sku).Error)
	assert.Equal(t, "p-SKU-NEW", sku.UpstreamProductID)
}

func TestPersistRefreshesMetadata(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{}
	svc := NewIngestService(db, fetcher, NewTimeSeriesService(db))

	refs := []upstream.SkuRef{{SkuCode: "SKU-1"}}
	result := svc.FetchBatch(context.Background(), refs)
	require.Len(t, result.Succeeded, 1)

	var sku models.TrackedSku
	require.NoError(t, db.Where("sku_code = ?", "SKU-1").First(&sku).Error)
	require.NoError(t, db.Model(&sku).Update("name", "stale name").Error)

	result = svc.FetchBatch(context.Background(), refs)
	require.Len(t, result.Succeeded, 1)

	require.NoError(t, db.Where("sku_code = ?", "SKU-1").First(&sku).Error)
	assert.Equal(t, "Product SKU-1", sku.Name, "metadata must refresh on every fetch")

	var trackedCount int64
	require.NoError(t, db.Model(&models.TrackedSku{}).Count(&trackedCount).Error)
	assert.EqualValues(t, 1, trackedCount)

	var snapCount int64
	require.NoError(t, db.Model(&models.RegionalInventorySnapshot{}).Where("sku_id = ?", sku.ID).Count(&snapCount).Error)
	assert.EqualValues(t, 1, snapCount, "same-day refetch must upsert, not append")
}

func TestFetchOne(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewIngestService(db, &stubFetcher{}, NewTimeSeriesService(db))

		_, err := svc.FetchOne(context.Background(), 42)
		assert.ErrorIs(t, err, ErrSkuNotFound)
	})

	t.Run("fetch failure surfaces as error", func(t *testing.T) {
		db := newTestDB(t)
		fetcher := &stubFetcher{failCodes: map[string]bool{"SKU-1": true}}
		svc := NewIngestService(db, fetcher, NewTimeSeriesService(db))

		sku := models.TrackedSku{SkuCode: "SKU-1"}
		require.NoError(t, db.Create(&sku).Error)

		_, err := svc.FetchOne(context.Background(), sku.ID)
		require.ErrorIs(t, err, ErrFetchFailed)
		assert.Contains(t, err.Error(), "endpoint unavailable")
	})

	t.Run("success persists and returns the snapshot", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewIngestService(db, &stubFetcher{}, NewTimeSeriesService(db))

		sku := models.TrackedSku{SkuCode: "SKU-1"}
		require.NoError(t, db.Create(&sku).Error)

		snap, err := svc.FetchOne(context.Background(), sku.ID)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, "SKU-1", snap.SkuCode)

		var count int64
		require.NoError(t, db.Model(&models.RegionalInventorySnapshot{}).Where("sku_id = ?", sku.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}
