package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_String(t *testing.T) {
	assert.Equal(t, "15.00", Cents(1500).String())
	assert.Equal(t, "0.00", Zero.String())
	assert.Equal(t, "1240.50", Cents(124050).String())
	assert.Equal(t, "0.07", Cents(7).String())
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want Cents
	}{
		{"15", 1500},
		{"15.00", 1500},
		{"15.5", 1550},
		{"0.07", 7},
		{" 1240.50 ", 124050},
	}
	for _, tt := range tests {
		got, err := ParseCents(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseCents_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "-1", "-0.50", "3."} {
		_, err := ParseCents(in)
		assert.Error(t, err, in)
		assert.True(t, IsValidation(err) || errorsIsFormat(err), in)
	}
}

func errorsIsFormat(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Kind == ErrInvalidFormat
}

func TestDomainError_IsMatchesKind(t *testing.T) {
	err := WrapError("council", "Resolve", ErrAlreadyProcessed, "request already resolved", nil)
	assert.True(t, IsAlreadyProcessed(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "council.Resolve: request already resolved", err.Error())

	assert.True(t, IsNotFound(ErrRequestNotFound))
	assert.True(t, IsValidation(ErrInvalidDifficulty))
}
