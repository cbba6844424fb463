package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "390", want: "390"},
		{name: "dot separator", input: "12.5", want: "12.5"},
		{name: "comma separator", input: "12,50", want: "12.5"},
		{name: "surrounding spaces", input: "  99 ", want: "99"},
		{name: "rounds half up", input: "0.125", want: "0.13"},
		{name: "zero", input: "0", wantErr: true},
		{name: "rounds to zero", input: "0.001", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "text", input: "coffee", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
		{name: "trailing separator", input: "12.", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "too large", input: "1000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	amount, err := ParseAmount("1234,56")
	require.NoError(t, err)

	minor := ToMinorUnits(amount)
	assert.Equal(t, int64(123456), minor)
	assert.True(t, FromMinorUnits(minor).Equal(amount))
}
