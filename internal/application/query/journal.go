package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET JOURNAL QUERY
// The member's badges split by derived state, plus the library with
// ownership marks.
// ══════════════════════════════════════════════════════════════════════════════

// JournalFilter narrows the journal view.
type JournalFilter string

const (
	JournalAll        JournalFilter = ""
	JournalInProgress JournalFilter = "inProgress"
	JournalMastered   JournalFilter = "mastered"
)

// GetJournalQuery contains the journal query parameters.
type GetJournalQuery struct {
	Filter JournalFilter

	// Domain restricts badges to one primary or secondary domain.
	Domain badge.Domain
}

// Validate checks the query parameters.
func (q GetJournalQuery) Validate() error {
	switch q.Filter {
	case JournalAll, JournalInProgress, JournalMastered:
	default:
		return fmt.Errorf("unknown journal filter %q", q.Filter)
	}
	if q.Domain != "" && !q.Domain.IsValid() {
		return fmt.Errorf("unknown domain %q", q.Domain)
	}
	return nil
}

// BadgeView is one owned badge with its derived progress.
type BadgeView struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Domain              badge.Domain `json:"domain"`
	Difficulty          int          `json:"difficulty"`
	State               badge.State  `json:"state"`
	Completed           int          `json:"completed"`
	Total               int          `json:"total"`
	IsVerified          bool         `json:"isVerified"`
	IsUserCreated       bool         `json:"isUserCreated"`
	IsShowcased         bool         `json:"isShowcased"`
	PendingVerification bool         `json:"pendingVerification"`
}

// LibraryEntry is one official badge with an ownership mark.
type LibraryEntry struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Domain        badge.Domain `json:"domain"`
	Difficulty    int          `json:"difficulty"`
	IsPartnership bool         `json:"isPartnership"`
	PartnerName   string       `json:"partnerName,omitempty"`
	Owned         bool         `json:"owned"`
}

// JournalDTO is the journal read model.
type JournalDTO struct {
	UserName   string         `json:"userName"`
	Tier       tier.Tier      `json:"tier"`
	InProgress []BadgeView    `json:"inProgress"`
	Mastered   []BadgeView    `json:"mastered"`
	Library    []LibraryEntry `json:"library"`
}

// GetJournalHandler handles GetJournalQuery.
type GetJournalHandler struct {
	reader StateReader
}

// NewGetJournalHandler creates a new GetJournalHandler.
func NewGetJournalHandler(reader StateReader) *GetJournalHandler {
	return &GetJournalHandler{reader: reader}
}

// Handle builds the journal view.
func (h *GetJournalHandler) Handle(_ context.Context, q GetJournalQuery) (*JournalDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_journal: %w", err)
	}
	s := h.reader.State()

	pending := pendingVerifications(s)
	dto := &JournalDTO{
		UserName:   s.User.Name,
		Tier:       s.User.Tier,
		InProgress: []BadgeView{},
		Mastered:   []BadgeView{},
		Library:    make([]LibraryEntry, 0, len(s.BadgesLibrary)),
	}

	for _, b := range s.User.Badges {
		if !inDomain(b, q.Domain) {
			continue
		}
		done, total := b.Progress()
		v := BadgeView{
			ID:                  b.ID,
			Title:               b.Title,
			Domain:              b.Domain,
			Difficulty:          int(b.Difficulty),
			State:               badge.DeriveState(b),
			Completed:           done,
			Total:               total,
			IsVerified:          b.IsVerified,
			IsUserCreated:       b.IsUserCreated,
			IsShowcased:         slices.Contains(s.User.ShowcasedBadgeIDs, b.ID),
			PendingVerification: pending[b.ID],
		}
		if v.State == badge.StateMastered {
			if q.Filter != JournalInProgress {
				dto.Mastered = append(dto.Mastered, v)
			}
		} else if q.Filter != JournalMastered {
			dto.InProgress = append(dto.InProgress, v)
		}
	}

	for _, b := range s.BadgesLibrary {
		if !inDomain(b, q.Domain) {
			continue
		}
		dto.Library = append(dto.Library, LibraryEntry{
			ID:            b.ID,
			Title:         b.Title,
			Domain:        b.Domain,
			Difficulty:    int(b.Difficulty),
			IsPartnership: b.IsPartnership,
			PartnerName:   b.PartnerName,
			Owned:         s.User.Owns(b.ID),
		})
	}
	return dto, nil
}

func inDomain(b badge.Badge, d badge.Domain) bool {
	return d == "" || b.Domain == d || slices.Contains(b.SecondaryDomains, d)
}

func pendingVerifications(s guild.State) map[string]bool {
	out := make(map[string]bool)
	for _, v := range s.VerificationRequests {
		if v.IsPending() {
			out[v.BadgeID] = true
		}
	}
	return out
}
