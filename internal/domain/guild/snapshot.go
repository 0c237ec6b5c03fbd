package guild

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// Encode serializes a state as a snapshot document.
func Encode(s State) ([]byte, error) {
	s.SchemaVersion = SchemaVersion
	s.normalize()
	return json.Marshal(s)
}

// Decode reads a snapshot of any supported schema version, migrating older
// layouts forward. Requirement completion is always re-derived on load.
func Decode(data []byte) (State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, shared.WrapError("guild", "Decode", shared.ErrInvalidFormat, "snapshot is not a JSON object", err)
	}

	version := 0
	if v, ok := raw["schemaVersion"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return State{}, shared.WrapError("guild", "Decode", shared.ErrInvalidFormat, "bad schemaVersion", err)
		}
	}

	for version < SchemaVersion {
		step, ok := migrations[version]
		if !ok {
			break
		}
		if err := step(raw); err != nil {
			return State{}, shared.WrapError("guild", "Migrate", shared.ErrInvalidFormat,
				fmt.Sprintf("migrating from version %d", version), err)
		}
		version++
	}
	if version != SchemaVersion {
		return State{}, shared.WrapError("guild", "Migrate", shared.ErrInvalidFormat,
			fmt.Sprintf("unsupported snapshot schema version %d", version), nil)
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(migrated, &s); err != nil {
		return State{}, shared.WrapError("guild", "Decode", shared.ErrInvalidFormat, "snapshot does not match layout", err)
	}
	s.SchemaVersion = SchemaVersion
	s.normalize()
	s.User.PruneShowcase()
	return s, nil
}

// migrations upgrades a raw snapshot from the keyed version to the next one.
var migrations = map[int]func(map[string]json.RawMessage) error{
	0: migrateV0,
}

// migrateV0 handles unversioned snapshots: money was a decimal number, some
// request arrays could be missing entirely, reviewer comments and action
// statements lived under older keys, and the key placeholder carried no real
// material.
func migrateV0(raw map[string]json.RawMessage) error {
	if v, ok := raw["accessFundBalance"]; ok {
		cents, err := decimalToCents(v)
		if err != nil {
			return fmt.Errorf("accessFundBalance: %w", err)
		}
		raw["accessFundBalance"] = cents
	}
	for _, key := range []string{
		"badgesLibrary", "colonies",
		"verificationRequests", "badgeProposals", "promotionRequests",
		"linkSuggestions", "partnershipRequests", "physicalBadgeRequests",
	} {
		if v, ok := raw[key]; !ok || string(v) == "null" {
			raw[key] = json.RawMessage("[]")
		}
	}
	costs, err := mapInArray(raw["physicalBadgeRequests"], "cost", decimalToCents)
	if err != nil {
		return fmt.Errorf("physicalBadgeRequests: %w", err)
	}
	raw["physicalBadgeRequests"] = costs

	statements, err := renameInArray(raw["promotionRequests"], "actionStatements", "statements")
	if err != nil {
		return fmt.Errorf("promotionRequests: %w", err)
	}
	raw["promotionRequests"] = statements

	for key, legacy := range legacyFeedbackKeys {
		moved, err := renameInArray(raw[key], legacy, "feedback")
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		raw[key] = moved
	}
	if u, ok := raw["user"]; ok {
		var user map[string]json.RawMessage
		if err := json.Unmarshal(u, &user); err != nil {
			return fmt.Errorf("user: %w", err)
		}
		delete(user, "security")
		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		raw["user"] = b
	}
	raw["schemaVersion"] = json.RawMessage("1")
	return nil
}

var legacyFeedbackKeys = map[string]string{
	"verificationRequests": "rejectionReason",
	"badgeProposals":       "rejectionReason",
	"promotionRequests":    "councilFeedback",
}

// renameInArray moves field from into field to on every object of a JSON array
// unless to is already set.
func renameInArray(arr json.RawMessage, from, to string) (json.RawMessage, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, err
	}
	for _, it := range items {
		v, ok := it[from]
		if !ok {
			continue
		}
		if _, has := it[to]; !has {
			it[to] = v
		}
		delete(it, from)
	}
	if items == nil {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(items)
}

// decimalToCents turns a decimal amount such as 15.5 into whole cents.
func decimalToCents(v json.RawMessage) (json.RawMessage, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, err
	}
	return json.Marshal(int64(math.Round(f * 100)))
}

// mapInArray rewrites field on every object of a JSON array that carries it.
func mapInArray(arr json.RawMessage, field string, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, err
	}
	for i, it := range items {
		v, ok := it[field]
		if !ok || string(v) == "null" {
			continue
		}
		out, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("item %d %s: %w", i, field, err)
		}
		it[field] = out
	}
	if items == nil {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(items)
}
