package config

import (
	"hash/fnv"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with gradual rollout and per-member
// overrides.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// userOverrides maps member id -> feature -> enabled.
	userOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent (0-100) assigns members by a hash of their id.
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID    string
	IsCouncil bool
}

// Predefined feature flag names.
const (
	FeatureOracleDrafting      = "oracle.drafting"       // Badge drafts from the oracle
	FeatureOracleGuidance      = "oracle.guidance"       // Recommendations, requirement ideas, complexity
	FeatureCouncilDecisionLog  = "council.decision_log"  // Audit log of council resolutions
	FeatureMilestoneNotices    = "notify.milestones"     // Mastery, ascension and council notices
	FeatureEventSharing        = "events.redis_sharing"  // Publish domain events to other processes
	FeatureGuidanceCache       = "oracle.guidance_cache" // Cache successful guidance answers
	FeatureSnapshotCache       = "storage.snapshot_cache"
	FeatureSovereignKeyBackups = "member.key_backups"
)

// LoadFeatureFlags builds the defaults and applies FEATURE_<NAME> overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	defaults := []Feature{
		{Name: FeatureOracleDrafting, Description: "Draft new badges with the oracle", Enabled: true},
		{Name: FeatureOracleGuidance, Description: "Ask the oracle for guidance", Enabled: true},
		{Name: FeatureCouncilDecisionLog, Description: "Record every council resolution", Enabled: true},
		{Name: FeatureMilestoneNotices, Description: "Tell the member about milestones", Enabled: true},
		{Name: FeatureEventSharing, Description: "Share domain events through Redis", Enabled: false},
		{Name: FeatureGuidanceCache, Description: "Cache oracle guidance in Redis", Enabled: true},
		{Name: FeatureSnapshotCache, Description: "Cache snapshots in Redis", Enabled: true},
		{Name: FeatureSovereignKeyBackups, Description: "Allow sovereign key generation", Enabled: true},
	}
	for i := range defaults {
		f := defaults[i]
		if f.Enabled {
			f.RolloutPercent = 100
		}
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment applies overrides.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_ORACLE_DRAFTING=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts a feature name to its environment key.
// "oracle.drafting" -> "FEATURE_ORACLE_DRAFTING"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.UserID != "" {
		if overrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}
	return feature.RolloutPercent > 0
}

// Check returns a closure for handlers that take an enabled func.
func (ff *FeatureFlags) Check(featureName, userID string) func() bool {
	ctx := &FeatureContext{UserID: userID}
	return func() bool { return ff.IsEnabled(featureName, ctx) }
}

// isInRollout uses consistent hashing so members stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	return int(h.Sum32()%100) < percent
}

// SetUserOverride sets a feature override for a specific member.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a member.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}
	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns copies of all features sorted by name.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
