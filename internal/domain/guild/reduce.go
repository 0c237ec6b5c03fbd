package guild

import (
	"fmt"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/colony"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// Reduce applies one event. On error the input state is returned untouched
// and no domain events are produced.
func Reduce(s State, e Event, env Env) (State, []shared.Event, error) {
	env.IDs = env.ids()
	env.ArtifactFee = env.artifactFee()
	next := s.Clone()
	next.normalize()

	var (
		events []shared.Event
		err    error
	)
	switch ev := e.(type) {
	case RecordEvidence:
		events, err = recordEvidence(&next, ev, env)
	case RevokeRequirement:
		events, err = revokeRequirement(&next, ev, env)
	case UpdateReflection:
		events, err = updateReflection(&next, ev, env)
	case DownloadBadge:
		events, err = downloadBadge(&next, ev, env)
	case CreateBadge:
		events, err = createBadge(&next, ev, env)
	case ToggleShowcase:
		events, err = toggleShowcase(&next, ev, env)
	case SubmitVerification:
		events, err = submitVerification(&next, ev, env)
	case SubmitProposal:
		events, err = submitProposal(&next, ev, env)
	case SubmitPromotion:
		events, err = submitPromotion(&next, ev, env)
	case SubmitLinkSuggestion:
		events, err = submitLinkSuggestion(&next, ev, env)
	case SubmitPartnership:
		events, err = submitPartnership(&next, ev, env)
	case SubmitPhysical:
		events, err = submitPhysical(&next, ev, env)
	case ResolveRequest:
		events, err = resolveRequest(&next, ev, env)
	case UpdatePrivacy:
		events, err = updatePrivacy(&next, ev, env)
	case SetCredentials:
		events, err = setCredentials(&next, ev, env)
	case JoinColony:
		events, err = joinColony(&next, ev, env)
	case ProposeColony:
		events, err = proposeColony(&next, ev, env)
	case ApproveColony:
		events, err = approveColony(&next, ev, env)
	default:
		err = shared.WrapError("guild", "Reduce", shared.ErrInvalidInput, fmt.Sprintf("unknown event %T", e), nil)
	}
	if err != nil {
		return s, nil, err
	}
	return next, events, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Journal
// ═══════════════════════════════════════════════════════════════════════════

func recordEvidence(s *State, ev RecordEvidence, env Env) ([]shared.Event, error) {
	b, req, err := ownedRequirement(s, ev.BadgeID, ev.RequirementID)
	if err != nil {
		return nil, err
	}
	wasMastered := b.IsMastered()
	req.RecordEvidence(badge.Evidence{URL: ev.URL, Note: ev.Note})

	at := env.now()
	events := []shared.Event{shared.NewEvidenceRecordedEvent(b.ID, req.ID, req.IsCompleted(), at)}
	return append(events, masteryChange(s, b, wasMastered, at)...), nil
}

func revokeRequirement(s *State, ev RevokeRequirement, env Env) ([]shared.Event, error) {
	b, req, err := ownedRequirement(s, ev.BadgeID, ev.RequirementID)
	if err != nil {
		return nil, err
	}
	wasMastered := b.IsMastered()
	req.Revoke()

	at := env.now()
	events := []shared.Event{shared.NewEvidenceRevokedEvent(b.ID, req.ID, req.IsCompleted(), at)}
	return append(events, masteryChange(s, b, wasMastered, at)...), nil
}

// masteryChange emits boundary events and keeps the showcase consistent.
func masteryChange(s *State, b *badge.Badge, wasMastered bool, at time.Time) []shared.Event {
	isMastered := b.IsMastered()
	switch {
	case !wasMastered && isMastered:
		return []shared.Event{shared.NewBadgeMasteredEvent(s.User.ID, b.ID, b.Title, at)}
	case wasMastered && !isMastered:
		events := []shared.Event{shared.NewBadgeMasteryLostEvent(s.User.ID, b.ID, b.Title, at)}
		if removed := s.User.PruneShowcase(); len(removed) > 0 {
			events = append(events, shared.NewMemberChangedEvent(shared.EventShowcaseChanged, s.User.ID,
				"removed "+b.ID, at))
		}
		return events
	}
	return nil
}

func ownedRequirement(s *State, badgeID, reqID string) (*badge.Badge, *badge.Requirement, error) {
	b, err := s.User.Badge(badgeID)
	if err != nil {
		return nil, nil, err
	}
	req, err := b.Requirement(reqID)
	if err != nil {
		return nil, nil, err
	}
	return b, req, nil
}

func updateReflection(s *State, ev UpdateReflection, env Env) ([]shared.Event, error) {
	b, err := s.User.Badge(ev.BadgeID)
	if err != nil {
		return nil, err
	}
	b.Reflections = ev.Text
	return []shared.Event{shared.NewReflectionUpdatedEvent(b.ID, len(ev.Text), env.now())}, nil
}

func downloadBadge(s *State, ev DownloadBadge, env Env) ([]shared.Event, error) {
	lib, ok := s.LibraryBadge(ev.BadgeID)
	if !ok {
		return nil, shared.WrapError("guild", "DownloadBadge", shared.ErrNotFound,
			fmt.Sprintf("library badge %q not found", ev.BadgeID), nil)
	}
	if s.User.Owns(lib.ID) {
		return nil, shared.ErrBadgeAlreadyOwned
	}
	c := lib.CopyForJournal()
	if err := s.User.AddBadge(c); err != nil {
		return nil, err
	}
	return []shared.Event{shared.NewBadgeAddedEvent(s.User.ID, c.ID, c.Title, string(badge.OriginLibrary), env.now())}, nil
}

func createBadge(s *State, ev CreateBadge, env Env) ([]shared.Event, error) {
	if ev.Origin != badge.OriginManual && ev.Origin != badge.OriginOracle {
		return nil, shared.WrapError("guild", "CreateBadge", shared.ErrInvalidInput,
			fmt.Sprintf("cannot author a badge with origin %q", ev.Origin), nil)
	}
	at := env.now()
	b, err := badge.New(ev.Draft, badge.NewParams{
		ID:        env.IDs.NewID("badge"),
		CreatorID: s.User.ID,
		Origin:    ev.Origin,
		CreatedAt: at,
	})
	if err != nil {
		return nil, err
	}
	if err := s.User.AddBadge(b); err != nil {
		return nil, err
	}
	return []shared.Event{shared.NewBadgeAddedEvent(s.User.ID, b.ID, b.Title, string(ev.Origin), at)}, nil
}

func toggleShowcase(s *State, ev ToggleShowcase, env Env) ([]shared.Event, error) {
	on, err := s.User.ToggleShowcase(ev.BadgeID)
	if err != nil {
		return nil, err
	}
	detail := "removed " + ev.BadgeID
	if on {
		detail = "added " + ev.BadgeID
	}
	return []shared.Event{shared.NewMemberChangedEvent(shared.EventShowcaseChanged, s.User.ID, detail, env.now())}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile and colonies
// ═══════════════════════════════════════════════════════════════════════════

func updatePrivacy(s *State, ev UpdatePrivacy, env Env) ([]shared.Event, error) {
	if err := s.User.UpdatePrivacy(ev.Privacy); err != nil {
		return nil, err
	}
	return []shared.Event{shared.NewMemberChangedEvent(shared.EventProfileUpdated, s.User.ID,
		"storage "+string(ev.Privacy.StorageLocation), env.now())}, nil
}

func setCredentials(s *State, ev SetCredentials, env Env) ([]shared.Event, error) {
	c := ev.Credentials
	if shared.IsBlank(c.PublicKey) || shared.IsBlank(c.PrivateKeyHash) {
		return nil, shared.NewDomainError("member", "SetCredentials", shared.ErrEmptyValue, "key material is incomplete")
	}
	s.User.Security = &c
	return []shared.Event{shared.NewMemberChangedEvent(shared.EventCredentialsRotated, s.User.ID, "keys generated", env.now())}, nil
}

func joinColony(s *State, ev JoinColony, env Env) ([]shared.Event, error) {
	c, ok := s.Colony(ev.ColonyID)
	if !ok {
		return nil, shared.ErrColonyNotFound
	}
	if !c.IsApproved {
		return nil, shared.ErrColonyNotApproved
	}
	s.User.ColonyID = c.ID
	return []shared.Event{shared.NewColonyEvent(shared.EventColonyJoined, c.ID, c.Name, s.User.ID, env.now())}, nil
}

func proposeColony(s *State, ev ProposeColony, env Env) ([]shared.Event, error) {
	c, err := colony.Propose(env.IDs.NewID("col"), colony.NextNumber(s.Colonies), colony.Proposal{
		Name:    ev.ColonyName,
		Siege:   ev.Siege,
		Charter: ev.Charter,
	})
	if err != nil {
		return nil, err
	}
	s.Colonies = append(s.Colonies, c)
	return []shared.Event{shared.NewColonyEvent(shared.EventColonyProposed, c.ID, c.Name, s.User.ID, env.now())}, nil
}

func approveColony(s *State, ev ApproveColony, env Env) ([]shared.Event, error) {
	c, ok := s.Colony(ev.ColonyID)
	if !ok {
		return nil, shared.ErrColonyNotFound
	}
	if err := c.Approve(); err != nil {
		return nil, err
	}
	return []shared.Event{shared.NewColonyEvent(shared.EventColonyApproved, c.ID, c.Name, "", env.now())}, nil
}
