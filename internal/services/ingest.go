package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"github.com/stocksentry/stocksentry/upstream"
	"gorm.io/gorm"
)

// fetchChunkSize bounds the number of in-flight upstream requests. Each
// chunk is awaited before the next one starts.
const fetchChunkSize = 10

// FailedFetch describes one SKU that could not be fetched within a batch
type FailedFetch struct {
	SkuCode string `json:"sku_code"`
	Reason  string `json:"reason"`
}

// BatchResult is the per-SKU outcome of one ingest run. Partial success is
// always reported explicitly; a single SKU's failure never aborts the batch.
type BatchResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []FailedFetch `json:"failed"`
}

// IngestService coordinates batched snapshot fetches and persists the
// results: SKU metadata refresh plus one regional time-series upsert per
// region returned by the upstream.
type IngestService struct {
	db         *gorm.DB
	fetcher    upstream.Fetcher
	timeseries *TimeSeriesService
	watchlist  []string
	chunkSize  int
}

// NewIngestService creates a new ingest service
func NewIngestService(db *gorm.DB, fetcher upstream.Fetcher, timeseries *TimeSeriesService) *IngestService {
	return &IngestService{
		db:         db,
		fetcher:    fetcher,
		timeseries: timeseries,
		chunkSize:  fetchChunkSize,
	}
}

// SetWatchlist sets additional SKU codes to ingest before they are tracked
func (s *IngestService) SetWatchlist(codes []string) {
	s.watchlist = codes
}

// FetchAll fetches snapshots for every tracked SKU plus the configured
// watchlist and persists the successful ones.
func (s *IngestService) FetchAll(ctx context.Context) (*BatchResult, error) {
	refs, err := s.collectRefs()
	if err != nil {
		return nil, fmt.Errorf("failed to collect sku refs: %w", err)
	}
	return s.FetchBatch(ctx, refs), nil
}

// FetchOne fetches and persists a single tracked SKU, returning the
// normalized snapshot. Used by the manual single-SKU trigger.
func (s *IngestService) FetchOne(ctx context.Context, skuID uint) (*upstream.SkuSnapshot, error) {
	var sku models.TrackedSku
	if err := s.db.First(&sku, skuID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrSkuNotFound, skuID)
		}
		return nil, err
	}

	ref := upstream.SkuRef{SkuID: sku.ID, SkuCode: sku.SkuCode, UpstreamProductID: sku.UpstreamProductID}
	res := s.fetcher.FetchSnapshot(ctx, ref)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, res.Reason)
	}

	if err := s.persistSnapshot(res.Snapshot); err != nil {
		return nil, err
	}
	return res.Snapshot, nil
}

// FetchBatch processes refs in fixed-size chunks with bounded concurrency
func (s *IngestService) FetchBatch(ctx context.Context, refs []upstream.SkuRef) *BatchResult {
	result := &BatchResult{
		Succeeded: []string{},
		Failed:    []FailedFetch{},
	}

	for start := 0; start < len(refs); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(refs) {
			end = len(refs)
		}
		chunk := refs[start:end]

		results := make([]*upstream.FetchResult, len(chunk))
		var wg sync.WaitGroup
		for i, ref := range chunk {
			wg.Add(1)
			go func(i int, ref upstream.SkuRef) {
				defer wg.Done()
				results[i] = s.fetcher.FetchSnapshot(ctx, ref)
			}(i, ref)
		}
		wg.Wait()

		// Persist sequentially; sqlite serializes writes anyway.
		for _, res := range results {
			if res == nil {
				continue
			}
			if !res.Success {
				result.Failed = append(result.Failed, FailedFetch{SkuCode: res.SkuCode, Reason: res.Reason})
				continue
			}
			if err := s.persistSnapshot(res.Snapshot); err != nil {
				logger.Log.Error().Err(err).Str("sku_code", res.SkuCode).Msg("failed to persist snapshot")
				result.Failed = append(result.Failed, FailedFetch{SkuCode: res.SkuCode, Reason: err.Error()})
				continue
			}
			result.Succeeded = append(result.Succeeded, res.SkuCode)
		}
	}

	logger.Log.Info().
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("ingest batch finished")
	return result
}

// collectRefs merges tracked SKUs with the configured watchlist codes
func (s *IngestService) collectRefs() ([]upstream.SkuRef, error) {
	var skus []models.TrackedSku
	if err := s.db.Find(&skus).Error; err != nil {
		return nil, err
	}

	refs := make([]upstream.SkuRef, 0, len(skus)+len(s.watchlist))
	seen := make(map[string]bool, len(skus))
	for _, sku := range skus {
		refs = append(refs, upstream.SkuRef{SkuID: sku.ID, SkuCode: sku.SkuCode, UpstreamProductID: sku.UpstreamProductID})
		seen[sku.SkuCode] = true
	}
	for _, code := range s.watchlist {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		refs = append(refs, upstream.SkuRef{SkuCode: code})
	}
	return refs, nil
}

// persistSnapshot creates the tracked SKU on first sight, refreshes its
// metadata on every later fetch, and upserts one time-series row per region.
func (s *IngestService) persistSnapshot(snap *upstream.SkuSnapshot) error {
	var sku models.TrackedSku
	err := s.db.Where("sku_code = ?", snap.SkuCode).First(&sku).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sku = models.TrackedSku{
			SkuCode:           snap.SkuCode,
			Name:              snap.Name,
			ImageURL:          snap.ImageURL,
			UpstreamProductID: snap.UpstreamProductID,
			UpstreamSkuID:     snap.UpstreamSkuID,
		}
		if err := s.db.Create(&sku).Error; err != nil {
			return fmt.Errorf("failed to create tracked sku: %w", err)
		}
	case err != nil:
		return err
	default:
		sku.Name = snap.Name
		sku.ImageURL = snap.ImageURL
		sku.UpstreamProductID = snap.UpstreamProductID
		sku.UpstreamSkuID = snap.UpstreamSkuID
		if err := s.db.Save(&sku).Error; err != nil {
			return fmt.Errorf("failed to update tracked sku: %w", err)
		}
	}

	for _, region := range snap.Regions {
		if err := s.timeseries.UpsertSnapshot(sku.ID, snap.FetchedAt, region, snap.FetchedAt); err != nil {
			return fmt.Errorf("failed to upsert snapshot for region %s: %w", region.RegionID, err)
		}
	}
	return nil
}
