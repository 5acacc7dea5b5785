package ga4

import (
	"strconv"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
)

// SourceName tags payloads produced by this adapter.
const SourceName = "ga4"

// mapReports normalizes the batch response into TrafficData. Percentages
// are recomputed locally from session counts so the shares stay
// consistent regardless of provider-side sampling.
func mapReports(reports []runReportResponse, rng analytics.DateRange) *analytics.TrafficData {
	data := &analytics.TrafficData{
		Source:      SourceName,
		Range:       rng,
		Sources:     []analytics.TrafficSource{},
		TopPages:    []analytics.TopPage{},
		Devices:     []analytics.DeviceBreakdown{},
		LastUpdated: time.Now().UTC(),
		Provenance:  analytics.ProvenanceFresh,
	}

	if rows := reports[reportTotals].Rows; len(rows) > 0 && len(rows[0].MetricValues) >= 4 {
		vals := rows[0].MetricValues
		data.Metrics.PageViews = parseCount(vals[0].Value)
		data.Metrics.Sessions = parseCount(vals[1].Value)
		data.Metrics.Visitors = parseCount(vals[2].Value)
		if br, err := strconv.ParseFloat(vals[3].Value, 64); err == nil {
			// GA4 reports bounce rate as a 0..1 fraction.
			pct := br * 100
			data.Metrics.BounceRate = &pct
		}
	}

	// Shares are computed against each list's own session sum, not the
	// grand total. The source report is truncated to the top rows, so
	// the list sum can be well below total sessions.
	for _, row := range reports[reportSources].Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		data.Sources = append(data.Sources, analytics.TrafficSource{
			Source:   row.DimensionValues[0].Value,
			Medium:   row.DimensionValues[1].Value,
			Sessions: parseCount(row.MetricValues[0].Value),
		})
	}
	var sourceSessions int64
	for _, s := range data.Sources {
		sourceSessions += s.Sessions
	}
	for i := range data.Sources {
		data.Sources[i].Percentage = analytics.SharePercent(data.Sources[i].Sessions, sourceSessions)
	}

	for _, row := range reports[reportPages].Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 2 {
			continue
		}
		page := analytics.TopPage{
			Path:      row.DimensionValues[0].Value,
			PageViews: parseCount(row.MetricValues[0].Value),
		}
		uv := parseCount(row.MetricValues[1].Value)
		page.UniqueVisitors = &uv
		data.TopPages = append(data.TopPages, page)
	}

	for _, row := range reports[reportDevices].Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 1 {
			continue
		}
		data.Devices = append(data.Devices, analytics.DeviceBreakdown{
			Device:   row.DimensionValues[0].Value,
			Sessions: parseCount(row.MetricValues[0].Value),
		})
	}
	var deviceSessions int64
	for _, d := range data.Devices {
		deviceSessions += d.Sessions
	}
	for i := range data.Devices {
		data.Devices[i].Percentage = analytics.SharePercent(data.Devices[i].Sessions, deviceSessions)
	}

	return data
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return n
}
