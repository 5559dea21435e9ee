package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() *RawTransaction {
	return &RawTransaction{
		TransactionID:              "TXN_1",
		Amount:                     125.50,
		AccountBalance:             2000.0,
		TransactionType:            "Purchase",
		DeviceType:                 "Mobile",
		MerchantCategory:           "Grocery",
		Location:                   "New York",
		IPAddressFlag:              "Safe",
		PreviousFraudulentActivity: "None",
	}
}

func TestNormalizeBaseVector(t *testing.T) {
	n := New(nil)
	vec, err := n.Normalize(validRaw())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"transaction_amount", "account_balance", "transaction_type",
		"device_type", "merchant_category", "location",
		"ip_address_flag", "previous_fraud_activity",
	}, vec.Columns)
	assert.Equal(t, []float64{125.50, 2000.0, 0, 0, 0, 0, 0, 0}, vec.Values)
}

func TestNormalizeTimestampColumns(t *testing.T) {
	n := New(nil)
	raw := validRaw()
	raw.Timestamp = "2026-08-29T14:30:00Z" // a Saturday

	vec, err := n.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, vec.Values, 11)

	assert.Equal(t, "hour", vec.Columns[8])
	assert.Equal(t, "day_of_week", vec.Columns[9])
	assert.Equal(t, "is_weekend", vec.Columns[10])
	assert.Equal(t, 14.0, vec.Values[8])
	assert.Equal(t, 5.0, vec.Values[9]) // Monday=0, so Saturday=5
	assert.Equal(t, 1.0, vec.Values[10])
}

func TestNormalizeWeekday(t *testing.T) {
	n := New(nil)
	raw := validRaw()
	raw.Timestamp = "2026-08-31T09:00:00Z" // a Monday

	vec, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec.Values[9])
	assert.Equal(t, 0.0, vec.Values[10])
}

func TestNormalizeBadTimestamp(t *testing.T) {
	n := New(nil)
	raw := validRaw()
	raw.Timestamp = "yesterday"

	_, err := n.Normalize(raw)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "timestamp", verr.Field)
}

func TestNormalizeStringNumerics(t *testing.T) {
	n := New(nil)
	raw := validRaw()
	raw.Amount = "99.99"
	raw.AccountBalance = " 1500 "

	vec, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 99.99, vec.Values[0])
	assert.Equal(t, 1500.0, vec.Values[1])
}

func TestNormalizeValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawTransaction)
		field  string
	}{
		{"missing amount", func(r *RawTransaction) { r.Amount = nil }, "transactionAmount"},
		{"negative amount", func(r *RawTransaction) { r.Amount = -5.0 }, "transactionAmount"},
		{"non numeric amount", func(r *RawTransaction) { r.Amount = "lots" }, "transactionAmount"},
		{"missing balance", func(r *RawTransaction) { r.AccountBalance = nil }, "accountBalance"},
		{"non numeric balance", func(r *RawTransaction) { r.AccountBalance = "plenty" }, "accountBalance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)
			_, err := New(nil).Normalize(raw)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUnknownCategoriesFallBack(t *testing.T) {
	n := New(nil)
	raw := validRaw()
	raw.TransactionType = "Barter"
	raw.DeviceType = "Smartwatch"
	raw.MerchantCategory = "Antiques"
	raw.Location = "Springfield"
	raw.IPAddressFlag = ""
	raw.PreviousFraudulentActivity = "???"

	vec, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 6.0, vec.Values[2])
	assert.Equal(t, 6.0, vec.Values[3])
	assert.Equal(t, 10.0, vec.Values[4])
	assert.Equal(t, 10.0, vec.Values[5])
	assert.Equal(t, 4.0, vec.Values[6])
	assert.Equal(t, 0.0, vec.Values[7])
}

func TestStandardScalerAppliesToNumericColumnsOnly(t *testing.T) {
	scaler := &StandardScaler{Mean: []float64{100, 1000}, Std: []float64{50, 500}}
	n := New(scaler)

	raw := validRaw()
	raw.Amount = 200.0
	raw.AccountBalance = 1500.0
	raw.TransactionType = "Transfer"

	vec, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 2.0, vec.Values[0])
	assert.Equal(t, 1.0, vec.Values[1])
	assert.Equal(t, 2.0, vec.Values[2]) // categorical codes untouched
}

func TestStandardScalerZeroStdPassthrough(t *testing.T) {
	scaler := &StandardScaler{Mean: []float64{100}, Std: []float64{0}}
	got := scaler.TransformNumeric([]float64{42})
	assert.Equal(t, []float64{42.0}, got)
}
