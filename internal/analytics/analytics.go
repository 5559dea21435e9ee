// Package analytics derives dashboard reports from the recent scoring window.
package analytics

import (
	"time"

	"github.com/fraudguard-io/fraudguard/internal/history"
	"github.com/fraudguard-io/fraudguard/internal/policy"
)

// FeatureWeight is a display-oriented importance entry. These are model-level
// weights curated offline, not per-request attributions.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// DefaultFeatureImportance matches the weights published with the fraud model.
var DefaultFeatureImportance = []FeatureWeight{
	{Feature: "Transaction Amount", Importance: 25},
	{Feature: "IP Address Flag", Importance: 25},
	{Feature: "Device Type", Importance: 20},
	{Feature: "Merchant Category", Importance: 15},
	{Feature: "Account Balance", Importance: 15},
}

// TrendPoint is one decision plotted on the risk trend chart. X is the
// position within the window, oldest first.
type TrendPoint struct {
	X              int       `json:"x"`
	Y              float64   `json:"y"`
	Timestamp      time.Time `json:"timestamp"`
	Classification string    `json:"classification"`
}

// Report is the analytics payload.
type Report struct {
	TotalPredictions  uint64          `json:"totalPredictions"`
	WindowSize        int             `json:"windowSize"`
	Distribution      map[string]int  `json:"riskDistribution"`
	Trend             []TrendPoint    `json:"riskTrend"`
	FeatureImportance []FeatureWeight `json:"featureImportance"`
}

// Builder renders reports from a history window.
type Builder struct {
	window     *history.Window
	importance []FeatureWeight
}

// NewBuilder creates a Builder. A nil importance list falls back to
// DefaultFeatureImportance.
func NewBuilder(window *history.Window, importance []FeatureWeight) *Builder {
	if importance == nil {
		importance = DefaultFeatureImportance
	}
	return &Builder{window: window, importance: importance}
}

// Build assembles the current report. The distribution always carries every
// classification bucket, zero-filled when empty, so chart clients never see a
// missing series.
func (b *Builder) Build() Report {
	entries := b.window.Snapshot()

	dist := make(map[string]int, len(policy.Classifications))
	for _, c := range policy.Classifications {
		dist[string(c)] = 0
	}
	trend := make([]TrendPoint, 0, len(entries))
	for i, e := range entries {
		dist[e.Classification]++
		trend = append(trend, TrendPoint{
			X:              i,
			Y:              e.RiskScore,
			Timestamp:      e.Timestamp,
			Classification: e.Classification,
		})
	}

	return Report{
		TotalPredictions:  b.window.TotalRecorded(),
		WindowSize:        len(entries),
		Distribution:      dist,
		Trend:             trend,
		FeatureImportance: b.importance,
	}
}
