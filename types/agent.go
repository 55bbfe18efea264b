package types

// Clamp01 clamps v to the [0,1] range. All proficiency, availability, load
// and collaboration values in the engine are stored clamped.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// collaborationAlpha is the smoothing factor of the collaboration score
// exponential moving average.
const collaborationAlpha = 0.2

// AgentProfile describes a single agent available for team formation.
//
// Profiles are owned by the capability registry. After registration only
// CurrentLoad and CollaborationScore are mutated (by the team formation
// manager and by negotiation outcome feedback respectively); everything
// else is treated as immutable.
type AgentProfile struct {
	// ID is the agent's unique identifier.
	ID string `json:"id"`

	// Capabilities maps capability name to proficiency in [0,1].
	Capabilities map[string]float64 `json:"capabilities"`

	// Specializations lists the agent's domain specializations.
	Specializations []string `json:"specializations,omitempty"`

	// Availability is the fraction of time the agent is available, in [0,1].
	Availability float64 `json:"availability"`

	// CurrentLoad is the agent's committed capacity, in [0,1].
	CurrentLoad float64 `json:"current_load"`

	// PerformanceRating is the agent's overall historical performance, in [0,1].
	PerformanceRating float64 `json:"performance_rating"`

	// TaskTypePerformance maps task type to historical performance for that
	// type, in [0,1]. Falls back to PerformanceRating when a type is absent.
	TaskTypePerformance map[string]float64 `json:"task_type_performance,omitempty"`

	// CostPerUnit is the agent's cost per unit of work.
	CostPerUnit float64 `json:"cost_per_unit"`

	// CollaborationScore is an exponential-moving-average reputation signal
	// updated after each team outcome, in [0,1].
	CollaborationScore float64 `json:"collaboration_score"`
}

// Clone returns a deep copy of the profile. Registry reads hand out clones
// so callers can never mutate registry-owned state.
func (a *AgentProfile) Clone() *AgentProfile {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Capabilities != nil {
		clone.Capabilities = make(map[string]float64, len(a.Capabilities))
		for k, v := range a.Capabilities {
			clone.Capabilities[k] = v
		}
	}
	if a.Specializations != nil {
		clone.Specializations = append([]string(nil), a.Specializations...)
	}
	if a.TaskTypePerformance != nil {
		clone.TaskTypePerformance = make(map[string]float64, len(a.TaskTypePerformance))
		for k, v := range a.TaskTypePerformance {
			clone.TaskTypePerformance[k] = v
		}
	}
	return &clone
}

// Normalize clamps every score field to [0,1] and replaces nil collections
// with independent empty ones. Called once at registration so each profile
// owns its own maps.
func (a *AgentProfile) Normalize() {
	if a.Capabilities == nil {
		a.Capabilities = make(map[string]float64)
	}
	for k, v := range a.Capabilities {
		a.Capabilities[k] = Clamp01(v)
	}
	if a.TaskTypePerformance == nil {
		a.TaskTypePerformance = make(map[string]float64)
	}
	for k, v := range a.TaskTypePerformance {
		a.TaskTypePerformance[k] = Clamp01(v)
	}
	a.Availability = Clamp01(a.Availability)
	a.CurrentLoad = Clamp01(a.CurrentLoad)
	a.PerformanceRating = Clamp01(a.PerformanceRating)
	a.CollaborationScore = Clamp01(a.CollaborationScore)
}

// Proficiency returns the agent's proficiency for a capability, 0 when the
// capability is absent.
func (a *AgentProfile) Proficiency(capability string) float64 {
	return a.Capabilities[capability]
}

// HasSpecialization reports whether the agent lists the given specialization.
func (a *AgentProfile) HasSpecialization(spec string) bool {
	for _, s := range a.Specializations {
		if s == spec {
			return true
		}
	}
	return false
}

// MeanProficiency returns the unweighted mean of all capability
// proficiencies, 0 when the agent has no capabilities.
func (a *AgentProfile) MeanProficiency() float64 {
	if len(a.Capabilities) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range a.Capabilities {
		sum += v
	}
	return sum / float64(len(a.Capabilities))
}

// PerformanceFor returns the agent's historical performance for the given
// task type, falling back to the overall rating when no history exists.
func (a *AgentProfile) PerformanceFor(taskType string) float64 {
	if taskType != "" {
		if p, ok := a.TaskTypePerformance[taskType]; ok {
			return p
		}
	}
	return a.PerformanceRating
}

// CapabilityMatchScore returns |required ∩ capabilities| / |required|.
// An empty required set scores 1.0.
func (a *AgentProfile) CapabilityMatchScore(required []string) float64 {
	if len(required) == 0 {
		return 1.0
	}
	matched := 0
	for _, cap := range required {
		if _, ok := a.Capabilities[cap]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// BlendCollaboration folds a new collaboration outcome into the EMA
// collaboration score and returns the updated value.
func BlendCollaboration(current, outcome float64) float64 {
	return Clamp01(current*(1-collaborationAlpha) + Clamp01(outcome)*collaborationAlpha)
}
