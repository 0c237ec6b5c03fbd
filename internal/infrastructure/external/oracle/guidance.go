package oracle

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// RecommendNext suggests three mastery paths.
func (c *Client) RecommendNext(ctx context.Context, ownedTitles, interests []string) (string, error) {
	prompt, err := render("recommend", recommendData{Owned: ownedTitles, Interests: interests})
	if err != nil {
		return "", err
	}
	text, err := c.complete(ctx, "RecommendNext", prompt)
	if err != nil {
		return "", err
	}
	return nonEmpty("RecommendNext", strings.TrimSpace(text))
}

// SuggestRequirement proposes one more checklist item for a badge.
func (c *Client) SuggestRequirement(ctx context.Context, title, description string, existing []string) (string, error) {
	prompt, err := render("requirement", requirementData{Title: title, Description: description, Existing: existing})
	if err != nil {
		return "", err
	}
	text, err := c.complete(ctx, "SuggestRequirement", prompt)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(strings.TrimLeft(line, "-*• "))
	return nonEmpty("SuggestRequirement", line)
}

// RateComplexity returns the first digit of the answer. Range checks are
// left to the caller.
func (c *Client) RateComplexity(ctx context.Context, title, description string, requirements []string) (int, error) {
	prompt, err := render("complexity", complexityData{Title: title, Description: description, Requirements: requirements})
	if err != nil {
		return 0, err
	}
	text, err := c.complete(ctx, "RateComplexity", prompt)
	if err != nil {
		return 0, err
	}
	for _, r := range text {
		if unicode.IsDigit(r) {
			n, err := strconv.Atoi(string(r))
			if err != nil {
				break
			}
			return n, nil
		}
	}
	return 0, shared.NewDomainError("oracle", "RateComplexity", shared.ErrInvalidFormat, "answer contains no rating")
}

func nonEmpty(op, text string) (string, error) {
	if text == "" {
		return "", shared.NewDomainError("oracle", op, shared.ErrInvalidFormat, "empty answer")
	}
	return text, nil
}
