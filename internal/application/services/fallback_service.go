package services

import (
	"hash/fnv"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// FallbackService produces plausible synthetic traffic data whenever real
// analytics cannot be served. Output is a pure function of the requested
// range, involves no I/O, never fails, and is never cached.
type FallbackService struct {
	logger *logging.ChanneledLogger
}

// NewFallbackService creates the synthetic data generator.
func NewFallbackService(logger *logging.ChanneledLogger) *FallbackService {
	return &FallbackService{logger: logger}
}

// Fixed distributions applied to the synthetic session total. Weights are
// percent shares and sum to 100 per list.
var (
	syntheticSources = []struct {
		source, medium string
		weight         int64
	}{
		{"google", "organic", 42},
		{"(direct)", "(none)", 28},
		{"bing", "organic", 11},
		{"facebook.com", "social", 10},
		{"newsletter", "email", 9},
	}

	syntheticPages = []struct {
		path   string
		weight int64
	}{
		{"/", 34},
		{"/products", 24},
		{"/collections/featured", 17},
		{"/blog", 14},
		{"/contact", 11},
	}

	syntheticDevices = []struct {
		device string
		weight int64
	}{
		{"desktop", 54},
		{"mobile", 36},
		{"tablet", 10},
	}
)

// Fallback generates synthetic analytics for a range. The same range
// always yields the same payload.
func (s *FallbackService) Fallback(rng analytics.DateRange) *analytics.TrafficData {
	var pageViews, sessions, visitors int64
	for day := rng.From; !day.After(rng.To); day = day.AddDate(0, 0, 1) {
		h := dayHash(day)
		pageViews += 140 + int64(h%90)
		sessions += 70 + int64(h%45)
		visitors += 50 + int64(h%35)
	}

	bounceRate := 40.0 + float64(dayHash(rng.From)%120)/10
	data := &analytics.TrafficData{
		Source: "synthetic",
		Range:  rng,
		Metrics: analytics.TrafficMetrics{
			PageViews:  pageViews,
			Sessions:   sessions,
			Visitors:   visitors,
			BounceRate: &bounceRate,
		},
		LastUpdated: time.Now().UTC(),
		Provenance:  analytics.ProvenanceSynthetic,
	}

	var allocated int64
	for i, src := range syntheticSources {
		share := sessions * src.weight / 100
		if i == len(syntheticSources)-1 {
			share = sessions - allocated
		}
		allocated += share
		data.Sources = append(data.Sources, analytics.TrafficSource{
			Source:     src.source,
			Medium:     src.medium,
			Sessions:   share,
			Percentage: analytics.SharePercent(share, sessions),
		})
	}

	for _, page := range syntheticPages {
		pv := pageViews * page.weight / 100
		uv := visitors * page.weight / 100
		data.TopPages = append(data.TopPages, analytics.TopPage{
			Path:           page.path,
			PageViews:      pv,
			UniqueVisitors: &uv,
		})
	}

	allocated = 0
	for i, dev := range syntheticDevices {
		share := sessions * dev.weight / 100
		if i == len(syntheticDevices)-1 {
			share = sessions - allocated
		}
		allocated += share
		data.Devices = append(data.Devices, analytics.DeviceBreakdown{
			Device:     dev.device,
			Sessions:   share,
			Percentage: analytics.SharePercent(share, sessions),
		})
	}

	return data
}

func dayHash(day time.Time) uint32 {
	h := fnv.New32a()
	h.Write([]byte(day.Format("2006-01-02")))
	return h.Sum32()
}
