package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewDateRangeTruncatesToDay(t *testing.T) {
	rng := NewDateRange(
		time.Date(2026, 3, 10, 13, 45, 12, 0, time.UTC),
		time.Date(2026, 3, 15, 1, 2, 3, 0, time.UTC),
	)
	assert.Equal(t, day("2026-03-10"), rng.From)
	assert.Equal(t, day("2026-03-15"), rng.To)
}

func TestDefaultRange(t *testing.T) {
	now := day("2026-08-31")
	rng := DefaultRange(now)
	assert.Equal(t, day("2026-08-01"), rng.From)
	assert.Equal(t, day("2026-08-31"), rng.To)
	assert.NoError(t, rng.Validate())
}

func TestValidateRejectsInvertedRange(t *testing.T) {
	rng := DateRange{From: day("2026-02-10"), To: day("2026-02-01")}
	assert.Error(t, rng.Validate())
}

func TestValidateAllowsSingleDay(t *testing.T) {
	rng := DateRange{From: day("2026-02-10"), To: day("2026-02-10")}
	assert.NoError(t, rng.Validate())
	assert.Equal(t, 1, rng.Days())
}

func TestContains(t *testing.T) {
	outer := DateRange{From: day("2026-01-01"), To: day("2026-01-31")}

	assert.True(t, outer.Contains(DateRange{From: day("2026-01-05"), To: day("2026-01-20")}))
	assert.True(t, outer.Contains(outer))
	// Partial overlap is not containment.
	assert.False(t, outer.Contains(DateRange{From: day("2026-01-20"), To: day("2026-02-05")}))
	assert.False(t, outer.Contains(DateRange{From: day("2025-12-20"), To: day("2026-01-05")}))
	assert.False(t, outer.Contains(DateRange{From: day("2026-02-01"), To: day("2026-02-10")}))
}

func TestKeyIsStable(t *testing.T) {
	rng := DateRange{From: day("2026-01-01"), To: day("2026-01-31")}
	assert.Equal(t, "2026-01-01:2026-01-31", rng.Key())
}

func TestSharePercent(t *testing.T) {
	assert.Equal(t, 50.0, SharePercent(50, 100))
	assert.Equal(t, 33.3, SharePercent(1, 3))
	assert.Equal(t, 0.0, SharePercent(10, 0))
	assert.Equal(t, 100.0, SharePercent(7, 7))
}

func TestCloneIsDeep(t *testing.T) {
	br := 41.5
	uv := int64(12)
	data := &TrafficData{
		Source:  "ga4",
		Metrics: TrafficMetrics{PageViews: 100, Sessions: 50, Visitors: 40, BounceRate: &br},
		Sources: []TrafficSource{{Source: "google", Medium: "organic", Sessions: 30, Percentage: 60}},
		TopPages: []TopPage{
			{Path: "/", PageViews: 80, UniqueVisitors: &uv},
		},
		Devices:    []DeviceBreakdown{{Device: "desktop", Sessions: 30, Percentage: 60}},
		Provenance: ProvenanceFresh,
	}

	clone := data.Clone()
	require.Equal(t, data, clone)

	clone.Sources[0].Sessions = 999
	*clone.Metrics.BounceRate = 99.9
	*clone.TopPages[0].UniqueVisitors = 999

	assert.EqualValues(t, 30, data.Sources[0].Sessions)
	assert.Equal(t, 41.5, *data.Metrics.BounceRate)
	assert.EqualValues(t, 12, *data.TopPages[0].UniqueVisitors)
}
