package analytics

import (
	"math"
	"time"
)

// Provenance tags how a TrafficData payload was produced. Every response
// carries exactly one of these so dashboard consumers can distinguish
// real provider data from synthetic fallback.
const (
	ProvenanceCache     = "cache"
	ProvenanceFresh     = "fresh"
	ProvenanceSynthetic = "synthetic"
)

// TrafficMetrics holds the aggregate counters for a date range.
// BounceRate is nil when the provider did not report one.
type TrafficMetrics struct {
	PageViews  int64    `json:"pageViews"`
	Sessions   int64    `json:"sessions"`
	Visitors   int64    `json:"visitors"`
	BounceRate *float64 `json:"bounceRate,omitempty"`
}

// TrafficSource is one referrer row. Percentage is the share of total
// sessions, rounded independently per row.
type TrafficSource struct {
	Source     string  `json:"source"`
	Medium     string  `json:"medium"`
	Sessions   int64   `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// TopPage is one page row ordered by page views.
type TopPage struct {
	Path           string `json:"path"`
	PageViews      int64  `json:"pageViews"`
	UniqueVisitors *int64 `json:"uniqueVisitors,omitempty"`
}

// DeviceBreakdown is one device-category row with its session share.
type DeviceBreakdown struct {
	Device     string  `json:"device"`
	Sessions   int64   `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// TrafficData is the normalized analytics payload every provider adapter
// and the fallback generator produce. Consumers never see provider-native
// response shapes.
type TrafficData struct {
	Source      string            `json:"source"`
	Range       DateRange         `json:"range"`
	Metrics     TrafficMetrics    `json:"metrics"`
	Sources     []TrafficSource   `json:"sources"`
	TopPages    []TopPage         `json:"topPages"`
	Devices     []DeviceBreakdown `json:"devices"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Provenance  string            `json:"provenance"`
}

// Clone returns a deep copy so cached payloads can be handed out without
// sharing slice backing arrays with the cache.
func (d *TrafficData) Clone() *TrafficData {
	if d == nil {
		return nil
	}
	out := *d
	if d.Metrics.BounceRate != nil {
		br := *d.Metrics.BounceRate
		out.Metrics.BounceRate = &br
	}
	out.Sources = make([]TrafficSource, len(d.Sources))
	copy(out.Sources, d.Sources)
	out.TopPages = make([]TopPage, len(d.TopPages))
	for i, p := range d.TopPages {
		out.TopPages[i] = p
		if p.UniqueVisitors != nil {
			uv := *p.UniqueVisitors
			out.TopPages[i].UniqueVisitors = &uv
		}
	}
	out.Devices = make([]DeviceBreakdown, len(d.Devices))
	copy(out.Devices, d.Devices)
	return &out
}

// SharePercent computes part's share of total as a percentage rounded to
// one decimal. Rows are rounded independently, so a list of shares sums
// to 100 within a +/-1 tolerance rather than exactly.
func SharePercent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
