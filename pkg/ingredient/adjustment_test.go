package ingredient

import (
	"math"
	"testing"

	"kitchen-ledger/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{raw: "5", want: 5},
		{raw: " 2.5 ", want: 2.5},
		{raw: "1e2", want: 100},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "Inf", wantErr: true},
		{raw: "0x1p3", wantErr: true},
		{raw: "0X10", wantErr: true},
		{raw: "1e400", wantErr: true},
		{raw: "1_000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyAdjustment(t *testing.T) {
	got, err := ApplyAdjustment(0.1, 0.2, Add)
	require.NoError(t, err)
	assert.Equal(t, 0.3, got)

	got, err = ApplyAdjustment(200, 200, Deduct)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = ApplyAdjustment(200, 200.5, Deduct)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 200.0, got)

	_, err = ApplyAdjustment(10, math.Inf(1), Add)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApplyAdjustment_Overflow(t *testing.T) {
	got, err := ApplyAdjustment(1e308, 1e308, Add)

	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, 1e308, got)

	got, err = ApplyAdjustment(math.MaxFloat64, math.MaxFloat64, Add)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, math.MaxFloat64, got)
}

func TestApplyAdjustment_RoundTrip(t *testing.T) {
	for _, start := range []float64{0, 1, 99.99, 1000} {
		for _, amount := range []float64{0.01, 1, 12.5, 750} {
			added, err := ApplyAdjustment(start, amount, Add)
			require.NoError(t, err)
			back, err := ApplyAdjustment(added, amount, Deduct)
			require.NoError(t, err)
			assert.Equal(t, start, back)
		}
	}
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "add", Add.String())
	assert.Equal(t, "deduct", Deduct.String())
}
