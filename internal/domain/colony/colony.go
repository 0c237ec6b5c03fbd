// Package colony holds community groupings a member can affiliate with.
package colony

import (
	"slices"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// Notice is a message pinned to a colony board.
type Notice struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// Gathering is a scheduled colony event.
type Gathering struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Colony is a local or virtual chapter.
type Colony struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Number       int         `json:"number"`
	Siege        string      `json:"siege"`
	Charter      string      `json:"charter"`
	MembersCount int         `json:"membersCount"`
	IsApproved   bool        `json:"isApproved"`
	Notices      []Notice    `json:"notices"`
	Events       []Gathering `json:"events"`
}

// Proposal holds the founder-supplied fields of a new colony.
type Proposal struct {
	Name    string
	Siege   string
	Charter string
}

// Propose creates an unapproved colony with its founder as the only member.
func Propose(id string, number int, p Proposal) (Colony, error) {
	if shared.IsBlank(p.Name) {
		return Colony{}, shared.NewDomainError("colony", "Propose", shared.ErrEmptyValue, "colony name cannot be empty")
	}
	return Colony{
		ID:           id,
		Name:         strings.TrimSpace(p.Name),
		Number:       number,
		Siege:        strings.TrimSpace(p.Siege),
		Charter:      p.Charter,
		MembersCount: 1,
		IsApproved:   false,
		Notices:      []Notice{},
		Events:       []Gathering{},
	}, nil
}

// Approve charters a proposed colony.
func (c *Colony) Approve() error {
	if c.IsApproved {
		return shared.ErrColonyAlreadyApproved
	}
	c.IsApproved = true
	return nil
}

// Clone returns a deep copy.
func (c Colony) Clone() Colony {
	c.Notices = slices.Clone(c.Notices)
	c.Events = slices.Clone(c.Events)
	return c
}

// NextNumber returns one past the highest colony number in use.
func NextNumber(cs []Colony) int {
	n := 100
	for _, c := range cs {
		if c.Number > n {
			n = c.Number
		}
	}
	return n + 1
}
