package council

import (
	"slices"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// DefaultArtifactFee is charged for every copy after the first free one.
const DefaultArtifactFee shared.Cents = 1500

// ArtifactQuote is the priced outcome of a physical artifact request.
type ArtifactQuote struct {
	Cost shared.Cents
	// ConsumesFreeClaim is set when this request uses up the one free copy.
	ConsumesFreeClaim bool
}

// QuoteArtifact prices a physical artifact: free when the badge has never been
// claimed free, otherwise the fee.
func QuoteArtifact(badgeID string, claimedFree []string, fee shared.Cents) ArtifactQuote {
	if slices.Contains(claimedFree, badgeID) {
		return ArtifactQuote{Cost: fee}
	}
	return ArtifactQuote{Cost: shared.Zero, ConsumesFreeClaim: true}
}
