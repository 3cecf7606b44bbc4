package upstream

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Session is a cached upstream access credential
type Session struct {
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// SkuRef identifies one SKU to fetch. UpstreamProductID is empty until the
// SKU has been successfully ingested at least once.
type SkuRef struct {
	SkuID             uint   `json:"sku_id"`
	SkuCode           string `json:"sku_code"`
	UpstreamProductID string `json:"upstream_product_id"`
}

// RegionStock is one region's normalized stock reading
type RegionStock struct {
	RegionID   string  `json:"region_id"`
	RegionName string  `json:"region_name"`
	RegionCode string  `json:"region_code"`
	Quantity   float64 `json:"qty"`
	Price      float64 `json:"price"`
}

// SkuSnapshot is a normalized point-in-time view of one SKU across regions
type SkuSnapshot struct {
	SkuCode           string        `json:"sku_code"`
	Name              string        `json:"name"`
	ImageURL          string        `json:"image_url"`
	UpstreamProductID string        `json:"upstream_product_id"`
	UpstreamSkuID     string        `json:"upstream_sku_id"`
	Regions           []RegionStock `json:"regions"`
	FetchedAt         time.Time     `json:"fetched_at"`
	Source            string        `json:"source"` // endpoint that served the data
}

// FetchResult is the outcome of one snapshot fetch. Endpoint failures never
// surface as errors; Reason carries the composed failure description.
type FetchResult struct {
	SkuCode  string       `json:"sku_code"`
	Success  bool         `json:"success"`
	Snapshot *SkuSnapshot `json:"snapshot,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// flexFloat tolerates upstream payloads that serialize numbers as strings.
// Anything non-numeric coerces to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// Wire types for the upstream inventory API

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type regionPayload struct {
	Name  string    `json:"name"`
	Code  string    `json:"code"`
	Qty   flexFloat `json:"qty"`
	Price flexFloat `json:"price"`
}

type productPayload struct {
	ProductID string                   `json:"product_id"`
	SkuID     string                   `json:"sku_id"`
	SkuCode   string                   `json:"sku_code"`
	Name      string                   `json:"name"`
	Image     string                   `json:"image"`
	Regions   map[string]regionPayload `json:"regions"` // keyed by region id
}

type listResponse struct {
	Items []productPayload `json:"items"`
}

// snapshot flattens the per-region-id breakdown into a uniform region list,
// ordered by region id for determinism.
func (p *productPayload) snapshot(source string, fetchedAt time.Time) *SkuSnapshot {
	regions := make([]RegionStock, 0, len(p.Regions))
	for id, r := range p.Regions {
		regions = append(regions, RegionStock{
			RegionID:   id,
			RegionName: r.Name,
			RegionCode: r.Code,
			Quantity:   float64(r.Qty),
			Price:      float64(r.Price),
		})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].RegionID < regions[j].RegionID })

	return &SkuSnapshot{
		SkuCode:           p.SkuCode,
		Name:              p.Name,
		ImageURL:          p.Image,
		UpstreamProductID: p.ProductID,
		UpstreamSkuID:     p.SkuID,
		Regions:           regions,
		FetchedAt:         fetchedAt,
		Source:            source,
	}
}
