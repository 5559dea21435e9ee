// Package features converts raw transaction attributes into the fixed-order
// numeric vector the fraud classifier consumes.
//
// Categorical attributes are encoded through closed vocabularies with integer
// codes; a value outside the vocabulary maps to the table's fallback code and
// is never an error. Numeric attributes must coerce to floats or the whole
// input is rejected with a ValidationError.
package features

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawTransaction is the unvalidated attribute mapping received at the
// boundary. Amount and AccountBalance accept JSON numbers or numeric strings.
type RawTransaction struct {
	TransactionID              string `json:"transactionId"`
	Amount                     any    `json:"transactionAmount"`
	AccountBalance             any    `json:"accountBalance"`
	TransactionType            string `json:"transactionType"`
	DeviceType                 string `json:"deviceType"`
	MerchantCategory           string `json:"merchantCategory"`
	Location                   string `json:"location"`
	IPAddressFlag              string `json:"ipAddressFlag"`
	PreviousFraudulentActivity string `json:"previousFraudulentActivity"`
	Timestamp                  string `json:"timestamp"` // optional, RFC3339
	IsFraud                    *bool  `json:"isFraud"`   // optional upstream override
}

// Vector is the normalized model input: parallel column names and values.
type Vector struct {
	Columns []string
	Values  []float64
}

// Canonical column order. Hour/day-of-week/weekend columns are appended only
// when the input carries a timestamp; an absent timestamp omits them rather
// than silently defaulting to zero.
var baseColumns = []string{
	"transaction_amount",
	"account_balance",
	"transaction_type",
	"device_type",
	"merchant_category",
	"location",
	"ip_address_flag",
	"previous_fraud_activity",
}

var timeColumns = []string{"hour", "day_of_week", "is_weekend"}

// numericColumns is how many leading columns a preprocessor applies to.
const numericColumns = 2

// ValidationError reports a malformed or missing required attribute.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Preprocessor transforms the numeric columns after categorical encoding.
// Implementations must be safe for concurrent use.
type Preprocessor interface {
	TransformNumeric(values []float64) []float64
}

// StandardScaler centers and scales numeric columns with fixed parameters
// shipped alongside the model.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// TransformNumeric applies (v - mean) / std per column. Columns without
// parameters, or with a zero std, pass through unchanged.
func (s *StandardScaler) TransformNumeric(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i < len(s.Mean) && i < len(s.Std) && s.Std[i] != 0 {
			out[i] = (v - s.Mean[i]) / s.Std[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// Closed categorical vocabularies. Codes match the model's training encoding.
var (
	transactionTypeCodes = map[string]float64{
		"Purchase": 0, "Withdrawal": 1, "Transfer": 2, "Deposit": 3,
		"Refund": 4, "Payment": 5, "Other": 6,
	}
	deviceTypeCodes = map[string]float64{
		"Mobile": 0, "Desktop": 1, "Tablet": 2, "ATM": 3,
		"POS Terminal": 4, "Web Browser": 5, "Other": 6,
	}
	merchantCategoryCodes = map[string]float64{
		"Grocery": 0, "Gas Station": 1, "Restaurant": 2, "Retail": 3,
		"Online Shopping": 4, "Entertainment": 5, "Healthcare": 6,
		"Travel": 7, "Utilities": 8, "Financial Services": 9, "Other": 10,
	}
	locationCodes = map[string]float64{
		"New York": 0, "Los Angeles": 1, "Chicago": 2, "Houston": 3,
		"Miami": 4, "Seattle": 5, "Boston": 6, "San Francisco": 7,
		"Denver": 8, "Atlanta": 9, "Other": 10,
	}
	ipAddressFlagCodes = map[string]float64{
		"Safe": 0, "Suspicious": 1, "High Risk": 2, "Blacklisted": 3, "Unknown": 4,
	}
	previousFraudCodes = map[string]float64{
		"None": 0, "Low Risk": 1, "Medium Risk": 2, "High Risk": 3, "Previously Flagged": 4,
	}
)

// Fallback codes per vocabulary for unrecognized values.
const (
	otherTransactionType = 6
	otherDeviceType      = 6
	otherMerchant        = 10
	otherLocation        = 10
	unknownIPFlag        = 4
	noPreviousFraud      = 0
)

// Normalizer builds feature vectors. The zero value is usable; Preprocessor
// is optional and its absence is not an error.
type Normalizer struct {
	pre Preprocessor
}

// New creates a Normalizer with an optional preprocessor (may be nil).
func New(pre Preprocessor) *Normalizer {
	return &Normalizer{pre: pre}
}

// Normalize converts raw attributes into the model feature vector.
func (n *Normalizer) Normalize(raw *RawTransaction) (Vector, error) {
	amount, err := coerceFloat("transactionAmount", raw.Amount, true)
	if err != nil {
		return Vector{}, err
	}
	if amount < 0 {
		return Vector{}, &ValidationError{Field: "transactionAmount", Message: "must not be negative"}
	}
	balance, err := coerceFloat("accountBalance", raw.AccountBalance, true)
	if err != nil {
		return Vector{}, err
	}

	values := []float64{
		amount,
		balance,
		encode(transactionTypeCodes, raw.TransactionType, otherTransactionType),
		encode(deviceTypeCodes, raw.DeviceType, otherDeviceType),
		encode(merchantCategoryCodes, raw.MerchantCategory, otherMerchant),
		encode(locationCodes, raw.Location, otherLocation),
		encode(ipAddressFlagCodes, raw.IPAddressFlag, unknownIPFlag),
		encode(previousFraudCodes, raw.PreviousFraudulentActivity, noPreviousFraud),
	}
	columns := append([]string(nil), baseColumns...)

	if raw.Timestamp != "" {
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			return Vector{}, &ValidationError{Field: "timestamp", Message: "must be an RFC3339 timestamp"}
		}
		hour := float64(ts.Hour())
		dow := float64((int(ts.Weekday()) + 6) % 7) // Monday=0 .. Sunday=6
		weekend := 0.0
		if dow >= 5 {
			weekend = 1.0
		}
		values = append(values, hour, dow, weekend)
		columns = append(columns, timeColumns...)
	}

	if n.pre != nil {
		scaled := n.pre.TransformNumeric(values[:numericColumns])
		copy(values[:numericColumns], scaled)
	}

	return Vector{Columns: columns, Values: values}, nil
}

func encode(table map[string]float64, value string, fallback float64) float64 {
	if code, ok := table[strings.TrimSpace(value)]; ok {
		return code
	}
	return fallback
}

func coerceFloat(field string, v any, required bool) (float64, error) {
	switch x := v.(type) {
	case nil:
		if required {
			return 0, &ValidationError{Field: field, Message: "is required"}
		}
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, &ValidationError{Field: field, Message: "must be a number"}
		}
		return f, nil
	default:
		return 0, &ValidationError{Field: field, Message: fmt.Sprintf("unsupported type %T", v)}
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	// Tolerate timestamps without a zone suffix
	return time.Parse("2006-01-02T15:04:05", s)
}
