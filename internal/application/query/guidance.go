package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE QUERIES
// Advisory text from the guidance collaborator. A failure never reaches the
// caller: each query has a fixed fallback.
// ══════════════════════════════════════════════════════════════════════════════

// Fallbacks used when the guidance collaborator is unavailable.
const (
	FallbackRecommendation = "The Oracle remains silent for now."
	FallbackRequirement    = "Document one further practical trial of this mastery."
	FallbackComplexity     = 3
)

// Guide produces advisory text. Implementations may fail freely.
type Guide interface {
	RecommendNext(ctx context.Context, ownedTitles, interests []string) (string, error)
	SuggestRequirement(ctx context.Context, title, description string, existing []string) (string, error)
	RateComplexity(ctx context.Context, title, description string, requirements []string) (int, error)
}

// GuidanceDTO is an advisory answer.
type GuidanceDTO struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// ComplexityDTO is an advisory 1–5 rating.
type ComplexityDTO struct {
	Rating   int  `json:"rating"`
	Fallback bool `json:"fallback"`
}

// RecommendNextQuery asks which badge to pursue next.
type RecommendNextQuery struct {
	Interests []string
}

// SuggestRequirementQuery asks for one more requirement. BadgeID takes the
// badge from the journal; otherwise Title, Description and Existing are used.
type SuggestRequirementQuery struct {
	BadgeID     string
	Title       string
	Description string
	Existing    []string
}

// RateComplexityQuery asks for a difficulty estimate of a draft.
type RateComplexityQuery struct {
	Draft badge.Draft
}

// GuidanceHandler answers the three guidance queries.
type GuidanceHandler struct {
	reader  StateReader
	guide   Guide
	enabled func() bool
	logger  *logger.Logger
}

// NewGuidanceHandler creates a new GuidanceHandler. guide and enabled may be nil.
func NewGuidanceHandler(reader StateReader, guide Guide, enabled func() bool, log *logger.Logger) *GuidanceHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GuidanceHandler{
		reader:  reader,
		guide:   guide,
		enabled: enabled,
		logger:  log.With(logger.Component("guidance")),
	}
}

func (h *GuidanceHandler) available() bool {
	return h.guide != nil && (h.enabled == nil || h.enabled())
}

// RecommendNext suggests what to pursue next based on owned badges.
func (h *GuidanceHandler) RecommendNext(ctx context.Context, q RecommendNextQuery) *GuidanceDTO {
	if !h.available() {
		return &GuidanceDTO{Text: FallbackRecommendation, Fallback: true}
	}
	s := h.reader.State()
	owned := make([]string, 0, len(s.User.Badges))
	for _, b := range s.User.Badges {
		owned = append(owned, b.Title)
	}

	text, err := h.guide.RecommendNext(ctx, owned, q.Interests)
	if err != nil || strings.TrimSpace(text) == "" {
		h.warn("recommend_next", err)
		return &GuidanceDTO{Text: FallbackRecommendation, Fallback: true}
	}
	return &GuidanceDTO{Text: strings.TrimSpace(text)}
}

// SuggestRequirement proposes one more checklist item for a badge.
func (h *GuidanceHandler) SuggestRequirement(ctx context.Context, q SuggestRequirementQuery) (*GuidanceDTO, error) {
	if q.BadgeID != "" {
		s := h.reader.State()
		b, err := s.User.Badge(q.BadgeID)
		if err != nil {
			return nil, fmt.Errorf("suggest_requirement: %w", err)
		}
		q.Title, q.Description = b.Title, b.Description
		q.Existing = make([]string, 0, len(b.Requirements))
		for _, r := range b.Requirements {
			q.Existing = append(q.Existing, r.Description)
		}
	}
	if !h.available() {
		return &GuidanceDTO{Text: FallbackRequirement, Fallback: true}, nil
	}

	text, err := h.guide.SuggestRequirement(ctx, q.Title, q.Description, q.Existing)
	if err != nil || strings.TrimSpace(text) == "" {
		h.warn("suggest_requirement", err)
		return &GuidanceDTO{Text: FallbackRequirement, Fallback: true}, nil
	}
	return &GuidanceDTO{Text: strings.TrimSpace(text)}, nil
}

// RateComplexity estimates the difficulty of a draft. Out-of-range answers
// count as failures.
func (h *GuidanceHandler) RateComplexity(ctx context.Context, q RateComplexityQuery) *ComplexityDTO {
	if !h.available() {
		return &ComplexityDTO{Rating: FallbackComplexity, Fallback: true}
	}
	reqs := make([]string, 0, len(q.Draft.Requirements))
	for _, r := range q.Draft.Requirements {
		reqs = append(reqs, r.Description)
	}

	rating, err := h.guide.RateComplexity(ctx, q.Draft.Title, q.Draft.Description, reqs)
	if err != nil || !badge.Difficulty(rating).IsValid() {
		if err == nil {
			err = fmt.Errorf("rating %d out of range", rating)
		}
		h.warn("rate_complexity", err)
		return &ComplexityDTO{Rating: FallbackComplexity, Fallback: true}
	}
	return &ComplexityDTO{Rating: rating}
}

func (h *GuidanceHandler) warn(op string, err error) {
	if err == nil {
		err = fmt.Errorf("empty answer")
	}
	h.logger.Warn("guidance unavailable, using fallback", logger.Operation(op), logger.Err(err))
}
