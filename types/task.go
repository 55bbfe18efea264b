package types

import (
	"sort"
	"time"
)

// Role defines a named position on a team: the capabilities it requires,
// the capabilities it prefers, and how important it is to fill.
// Roles are immutable once registered.
type Role struct {
	// ID is the role's unique identifier.
	ID string `json:"id"`

	// Name is the role's human-readable name.
	Name string `json:"name"`

	// RequiredCapabilities lists capabilities a candidate must have.
	RequiredCapabilities []string `json:"required_capabilities"`

	// PreferredCapabilities lists capabilities that strengthen a candidate.
	PreferredCapabilities []string `json:"preferred_capabilities,omitempty"`

	// MinPerformance is the minimum performance rating for the role, in [0,1].
	MinPerformance float64 `json:"min_performance"`

	// Priority orders roles during assignment; higher fills first.
	Priority int `json:"priority"`
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	clone := *r
	clone.RequiredCapabilities = append([]string(nil), r.RequiredCapabilities...)
	if r.PreferredCapabilities != nil {
		clone.PreferredCapabilities = append([]string(nil), r.PreferredCapabilities...)
	}
	return &clone
}

// TaskRequirement describes what a caller needs a team for. It is read-only
// input: the engine never mutates it.
type TaskRequirement struct {
	// ID is the task's unique identifier.
	ID string `json:"id"`

	// Type is a free-form task type ("creative", "analytical", ...) used for
	// per-type performance history and hybrid weight adjustment.
	Type string `json:"type,omitempty"`

	// RequiredCapabilities maps capability name to the minimum proficiency a
	// covering member must reach. The same map doubles as the per-capability
	// weight table during capability-matching allocation.
	RequiredCapabilities map[string]float64 `json:"required_capabilities"`

	// RequiredRoles lists role IDs the team should fill, resolved against the
	// role registry. Optional; capability-only tasks leave it empty.
	RequiredRoles []string `json:"required_roles,omitempty"`

	// Specializations lists domain specializations that strengthen candidates.
	Specializations []string `json:"specializations,omitempty"`

	// Priority ranks the task from 1 (lowest) to 10 (highest).
	Priority int `json:"priority"`

	// EstimatedDuration is the task's estimated effort in abstract work units.
	EstimatedDuration float64 `json:"estimated_duration"`

	// Complexity ranks the task's difficulty from 1 to 10.
	Complexity int `json:"complexity"`

	// MinTeamSize and MaxTeamSize bound the team size.
	MinTeamSize int `json:"min_team_size"`
	MaxTeamSize int `json:"max_team_size"`

	// Deadline is the optional point by which the task must complete.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// RequiredCapabilityNames returns the required capability names in
// deterministic (sorted) order.
func (t *TaskRequirement) RequiredCapabilityNames() []string {
	names := make([]string, 0, len(t.RequiredCapabilities))
	for name := range t.RequiredCapabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
