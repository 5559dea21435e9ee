// Package policy maps a model risk score to an actionable transaction decision.
//
// The mapping is a fixed threshold table: scores at or above the block
// threshold are blocked as High Risk, scores in the review band are flagged
// as Medium Risk, scores in the flag band are flagged as Low Risk, and
// everything below is approved as Safe. The thresholds and the confidence
// formula constants are configuration, not derivations — swapping them must
// never require touching the scoring pipeline.
package policy

import "math"

// Status is the actionable decision taken on a transaction.
type Status string

const (
	StatusApproved Status = "approved"
	StatusFlagged  Status = "flagged"
	StatusBlocked  Status = "blocked"
)

// Classification is the risk bucket derived from the score.
type Classification string

const (
	ClassSafe       Classification = "Safe"
	ClassLowRisk    Classification = "Low Risk"
	ClassMediumRisk Classification = "Medium Risk"
	ClassHighRisk   Classification = "High Risk"
)

// Classifications lists all buckets in ascending risk order.
var Classifications = []Classification{ClassSafe, ClassLowRisk, ClassMediumRisk, ClassHighRisk}

// Default policy constants.
const (
	DefaultBlockThreshold  = 0.7
	DefaultReviewThreshold = 0.4
	DefaultFlagThreshold   = 0.2

	DefaultConfidenceBase  = 80.0
	DefaultConfidenceSlope = 20.0
	DefaultConfidenceMin   = 60
	DefaultConfidenceMax   = 90
)

// Config holds the decision thresholds and confidence parameters.
type Config struct {
	BlockThreshold  float64 // score >= this: blocked / High Risk
	ReviewThreshold float64 // score >= this: flagged / Medium Risk
	FlagThreshold   float64 // score >= this: flagged / Low Risk

	ConfidenceBase  float64
	ConfidenceSlope float64
	ConfidenceMin   int
	ConfidenceMax   int
}

// DefaultConfig returns the standard policy configuration.
func DefaultConfig() Config {
	return Config{
		BlockThreshold:  DefaultBlockThreshold,
		ReviewThreshold: DefaultReviewThreshold,
		FlagThreshold:   DefaultFlagThreshold,
		ConfidenceBase:  DefaultConfidenceBase,
		ConfidenceSlope: DefaultConfidenceSlope,
		ConfidenceMin:   DefaultConfidenceMin,
		ConfidenceMax:   DefaultConfidenceMax,
	}
}

// Decision is the full verdict for a single risk score.
type Decision struct {
	Status         Status         `json:"status"`
	Classification Classification `json:"classification"`
	IsFraud        bool           `json:"isFraud"`
	Confidence     int            `json:"confidence"`
}

// Decide applies the threshold table to a risk score. When fraudOverride is
// non-nil the caller-supplied fraud flag wins; otherwise scores at or above
// the block threshold default to fraud.
func (c Config) Decide(score float64, fraudOverride *bool) Decision {
	d := Decision{
		Status:         c.StatusFor(score),
		Classification: c.Classify(score),
		IsFraud:        score >= c.BlockThreshold,
		Confidence:     c.Confidence(score),
	}
	if fraudOverride != nil {
		d.IsFraud = *fraudOverride
	}
	return d
}

// StatusFor returns the actionable status for a score.
func (c Config) StatusFor(score float64) Status {
	switch {
	case score >= c.BlockThreshold:
		return StatusBlocked
	case score >= c.FlagThreshold:
		return StatusFlagged
	default:
		return StatusApproved
	}
}

// Classify returns the risk bucket for a score.
func (c Config) Classify(score float64) Classification {
	switch {
	case score >= c.BlockThreshold:
		return ClassHighRisk
	case score >= c.ReviewThreshold:
		return ClassMediumRisk
	case score >= c.FlagThreshold:
		return ClassLowRisk
	default:
		return ClassSafe
	}
}

// Confidence computes base + |score-0.5|*slope, rounded and clamped to
// [ConfidenceMin, ConfidenceMax]. Confidence grows with distance from the
// decision boundary at 0.5.
func (c Config) Confidence(score float64) int {
	v := int(math.Round(c.ConfidenceBase + math.Abs(score-0.5)*c.ConfidenceSlope))
	if v < c.ConfidenceMin {
		return c.ConfidenceMin
	}
	if v > c.ConfidenceMax {
		return c.ConfidenceMax
	}
	return v
}
