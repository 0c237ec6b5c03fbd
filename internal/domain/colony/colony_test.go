package colony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

func TestPropose(t *testing.T) {
	c, err := Propose("col-1", 206, Proposal{Name: "  Harbor Colony ", Siege: "Tidewater", Charter: "Keep the docks"})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Colony", c.Name)
	assert.Equal(t, 1, c.MembersCount)
	assert.False(t, c.IsApproved)

	_, err = Propose("col-2", 207, Proposal{Name: " "})
	assert.True(t, shared.IsValidation(err))
}

func TestApprove(t *testing.T) {
	c, err := Propose("col-1", 206, Proposal{Name: "Harbor"})
	require.NoError(t, err)
	require.NoError(t, c.Approve())
	assert.True(t, c.IsApproved)
	assert.True(t, shared.IsAlreadyProcessed(c.Approve()))
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, 101, NextNumber(nil))
	assert.Equal(t, 206, NextNumber([]Colony{{Number: 101}, {Number: 205}}))
}
