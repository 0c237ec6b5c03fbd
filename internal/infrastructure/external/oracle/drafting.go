package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

type draftResponse struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Domain           string   `json:"domain"`
	SecondaryDomains []string `json:"secondaryDomains"`
	Difficulty       int      `json:"difficulty"`
	Requirements     []string `json:"requirements"`
}

// DraftBadge asks the model for a badge curriculum. The draft is returned
// as parsed; callers normalize it.
func (c *Client) DraftBadge(ctx context.Context, topic, goal string) (badge.Draft, error) {
	domains := make([]string, len(badge.Domains))
	for i, d := range badge.Domains {
		domains[i] = string(d)
	}
	prompt, err := render("draft", draftData{Topic: topic, Goal: goal, Domains: strings.Join(domains, ", ")})
	if err != nil {
		return badge.Draft{}, err
	}

	text, err := c.complete(ctx, "DraftBadge", prompt)
	if err != nil {
		return badge.Draft{}, err
	}
	return parseDraft(text)
}

// parseDraft reads the JSON object out of a model answer, tolerating code
// fences and chatter around it.
func parseDraft(text string) (badge.Draft, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return badge.Draft{}, shared.NewDomainError("oracle", "DraftBadge", shared.ErrInvalidFormat, "answer contains no JSON object")
	}

	var resp draftResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return badge.Draft{}, shared.WrapError("oracle", "DraftBadge", shared.ErrInvalidFormat, "answer is not a badge draft", err)
	}

	secondary := make([]badge.Domain, 0, len(resp.SecondaryDomains))
	for _, s := range resp.SecondaryDomains {
		secondary = append(secondary, badge.Domain(s))
	}
	d := badge.DraftFromTexts(resp.Title, resp.Description, badge.Domain(resp.Domain), secondary,
		badge.Difficulty(resp.Difficulty), resp.Requirements)
	for i := range d.Requirements {
		d.Requirements[i].ID = fmt.Sprintf("ai-req-%d", i+1)
	}
	return d, nil
}
