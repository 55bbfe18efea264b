package types

import "time"

// TeamStatus represents the lifecycle state of a team.
type TeamStatus string

const (
	TeamStatusForming   TeamStatus = "forming"
	TeamStatusActive    TeamStatus = "active"
	TeamStatusCompleted TeamStatus = "completed"
	TeamStatusDisbanded TeamStatus = "disbanded"
)

// IsTerminal reports whether the status permits no further mutation.
// Disbanding is terminal; completed teams may still receive performance
// updates.
func (s TeamStatus) IsTerminal() bool {
	return s == TeamStatusDisbanded
}

// TeamMember records one agent's assignment inside a team.
type TeamMember struct {
	// AgentID identifies the assigned agent.
	AgentID string `json:"agent_id"`

	// Capabilities lists the required capabilities this member covers.
	Capabilities []string `json:"capabilities,omitempty"`

	// Role is the role ID the member fills, empty for capability-only teams.
	Role string `json:"role,omitempty"`
}

// TeamPerformance holds a team's computed performance metrics.
type TeamPerformance struct {
	// OverallScore is the weighted performance score in [0,1].
	OverallScore float64 `json:"overall_score"`

	// CapabilityCoverage is the fraction of required capabilities covered by
	// at least one member at its minimum proficiency.
	CapabilityCoverage float64 `json:"capability_coverage"`

	// RoleCoverage is the fraction of required roles that were filled.
	RoleCoverage float64 `json:"role_coverage"`
}

// Team is a formed group of agents assembled for one task.
//
// The Task field keeps the original TaskRequirement the team was formed
// for, so composition repair always evaluates gaps against the true
// requirement rather than a reconstruction from current assignments.
type Team struct {
	// ID is the team's unique identifier.
	ID string `json:"id"`

	// TaskID is a weak back-reference to the task; lookup only, not ownership.
	TaskID string `json:"task_id"`

	// Task is the requirement the team was formed against.
	Task *TaskRequirement `json:"-"`

	// Strategy names the formation strategy that built the team.
	Strategy string `json:"strategy"`

	// Members lists the team's members in assignment order.
	Members []*TeamMember `json:"members"`

	// Status is the team's lifecycle state.
	Status TeamStatus `json:"status"`

	// Performance holds the team's computed metrics.
	Performance TeamPerformance `json:"performance"`

	// LoadDelta is the per-member load added at formation, released verbatim
	// on disband.
	LoadDelta float64 `json:"load_delta"`

	// CreatedAt is the formation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Member returns the member entry for an agent, nil when absent.
func (t *Team) Member(agentID string) *TeamMember {
	for _, m := range t.Members {
		if m.AgentID == agentID {
			return m
		}
	}
	return nil
}

// MemberIDs returns the member agent IDs in assignment order.
func (t *Team) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.AgentID
	}
	return ids
}

// Size returns the number of members.
func (t *Team) Size() int {
	return len(t.Members)
}

// CoveredCapabilities returns the union of capabilities covered by the
// team's members.
func (t *Team) CoveredCapabilities() map[string]bool {
	covered := make(map[string]bool)
	for _, m := range t.Members {
		for _, c := range m.Capabilities {
			covered[c] = true
		}
	}
	return covered
}

// Clone returns a deep copy of the team. The Task pointer is shared: the
// requirement is caller-owned, read-only input.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Members = make([]*TeamMember, len(t.Members))
	for i, m := range t.Members {
		mc := *m
		mc.Capabilities = append([]string(nil), m.Capabilities...)
		clone.Members[i] = &mc
	}
	return &clone
}
