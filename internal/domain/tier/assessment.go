package tier

import "github.com/heron-guild/guildhall/internal/domain/badge"

// ItemStatus is the advisory outcome for one prerequisite.
type ItemStatus string

const (
	StatusMet       ItemStatus = "met"
	StatusUnmet     ItemStatus = "unmet"
	StatusForReview ItemStatus = "for_review"
)

// ItemAssessment pairs a prerequisite with its advisory status.
type ItemAssessment struct {
	Item   Item       `json:"item"`
	Status ItemStatus `json:"status"`
}

// Assessment is an advisory eligibility report. It never gates submission.
type Assessment struct {
	Current   Tier             `json:"current"`
	Target    Tier             `json:"target"`
	Items     []ItemAssessment `json:"items"`
	Met       int              `json:"met"`
	Unmet     int              `json:"unmet"`
	ForReview int              `json:"forReview"`
}

// LooksReady reports whether nothing checkable is unmet.
func (a Assessment) LooksReady() bool {
	return a.Unmet == 0
}

// Assess compares owned badges against the prerequisites of target.
// Keystones are met when the badge is owned and mastered. Milestones with
// count hints are checked against mastered badges; the rest are left for review.
func Assess(m RequirementMap, current, target Tier, owned []badge.Badge) (Assessment, error) {
	items, err := m.For(target)
	if err != nil {
		return Assessment{}, err
	}

	mastered := make(map[string]bool, len(owned))
	domains := make(map[badge.Domain]bool)
	for _, b := range owned {
		if b.IsMastered() {
			mastered[b.ID] = true
			domains[b.Domain] = true
		}
	}

	a := Assessment{Current: current, Target: target, Items: make([]ItemAssessment, 0, len(items))}
	for _, it := range items {
		status := StatusForReview
		switch it.Kind {
		case ItemKeystone:
			status = StatusUnmet
			if mastered[it.BadgeID] {
				status = StatusMet
			}
		case ItemMilestone:
			if it.MinMastered > 0 || it.MinDomains > 0 {
				status = StatusMet
				if len(mastered) < it.MinMastered || len(domains) < it.MinDomains {
					status = StatusUnmet
				}
			}
		}
		switch status {
		case StatusMet:
			a.Met++
		case StatusUnmet:
			a.Unmet++
		default:
			a.ForReview++
		}
		a.Items = append(a.Items, ItemAssessment{Item: it, Status: status})
	}
	return a, nil
}
