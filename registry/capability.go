// Package registry provides the in-memory capability and role registries.
//
// Both registries are safe for concurrent use. Reads hand out deep copies
// so callers can never mutate registry-owned state.
package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// AgentFilter narrows FindAvailableAgents results. Zero-value fields do
// not filter.
type AgentFilter struct {
	// Capabilities requires each listed capability at the given minimum
	// proficiency.
	Capabilities map[string]float64

	// Specializations requires at least one of the listed specializations.
	Specializations []string

	// MinAvailability excludes agents below the given availability.
	MinAvailability float64

	// MaxLoad excludes agents at or above the given load. Zero means no
	// load filtering.
	MaxLoad float64
}

// CapabilityRegistry owns AgentProfile records and indexes them by
// capability for fast filtered lookup.
type CapabilityRegistry struct {
	mu sync.RWMutex

	// agents stores profiles by agent ID.
	agents map[string]*types.AgentProfile

	// order preserves registration order for deterministic listings.
	order []string

	// capabilityIndex maps capability name to the IDs of agents holding it.
	capabilityIndex map[string]map[string]bool

	logger *zap.Logger
}

// NewCapabilityRegistry creates an empty capability registry.
func NewCapabilityRegistry(logger *zap.Logger) *CapabilityRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapabilityRegistry{
		agents:          make(map[string]*types.AgentProfile),
		capabilityIndex: make(map[string]map[string]bool),
		logger:          logger.With(zap.String("component", "capability_registry")),
	}
}

// RegisterAgent registers an agent profile. The profile is cloned and
// normalized; the caller keeps ownership of its copy.
func (r *CapabilityRegistry) RegisterAgent(profile *types.AgentProfile) error {
	if profile == nil || profile.ID == "" {
		return types.NewError(types.ErrEmptyInput, "agent profile is nil or has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[profile.ID]; exists {
		return types.NewError(types.ErrInvalidTransition, "agent %s already registered", profile.ID)
	}

	stored := profile.Clone()
	stored.Normalize()
	r.agents[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	for cap := range stored.Capabilities {
		r.indexCapability(cap, stored.ID)
	}

	r.logger.Info("agent registered",
		zap.String("agent_id", stored.ID),
		zap.Int("capabilities", len(stored.Capabilities)),
	)
	return nil
}

// UnregisterAgent removes an agent from the registry.
func (r *CapabilityRegistry) UnregisterAgent(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.agents[agentID]
	if !exists {
		return types.NewError(types.ErrNotFound, "agent %s not found", agentID)
	}

	for cap := range profile.Capabilities {
		if ids, ok := r.capabilityIndex[cap]; ok {
			delete(ids, agentID)
			if len(ids) == 0 {
				delete(r.capabilityIndex, cap)
			}
		}
	}
	delete(r.agents, agentID)
	for i, id := range r.order {
		if id == agentID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("agent unregistered", zap.String("agent_id", agentID))
	return nil
}

// GetAgent retrieves a copy of an agent profile.
func (r *CapabilityRegistry) GetAgent(agentID string) (*types.AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.agents[agentID]
	if !exists {
		return nil, types.NewError(types.ErrNotFound, "agent %s not found", agentID)
	}
	return profile.Clone(), nil
}

// ListAgents returns copies of all profiles in registration order.
func (r *CapabilityRegistry) ListAgents() []*types.AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*types.AgentProfile, 0, len(r.order))
	for _, id := range r.order {
		agents = append(agents, r.agents[id].Clone())
	}
	return agents
}

// FindAvailableAgents returns copies of the agents passing the filter, in
// registration order.
func (r *CapabilityRegistry) FindAvailableAgents(filter AgentFilter) []*types.AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*types.AgentProfile, 0)
	for _, id := range r.order {
		profile := r.agents[id]
		if r.matches(profile, filter) {
			matched = append(matched, profile.Clone())
		}
	}
	return matched
}

// matches evaluates a filter against a profile. Caller holds the lock.
func (r *CapabilityRegistry) matches(p *types.AgentProfile, f AgentFilter) bool {
	if p.Availability < f.MinAvailability {
		return false
	}
	if f.MaxLoad > 0 && p.CurrentLoad >= f.MaxLoad {
		return false
	}
	for cap, min := range f.Capabilities {
		if p.Proficiency(cap) < min {
			return false
		}
	}
	if len(f.Specializations) > 0 {
		found := false
		for _, spec := range f.Specializations {
			if p.HasSpecialization(spec) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// UpdateAgentLoad sets an agent's load to the given value, clamped to [0,1].
func (r *CapabilityRegistry) UpdateAgentLoad(agentID string, load float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.agents[agentID]
	if !exists {
		return types.NewError(types.ErrNotFound, "agent %s not found", agentID)
	}
	profile.CurrentLoad = types.Clamp01(load)
	return nil
}

// AddAgentLoad adjusts an agent's load by delta, clamped to [0,1].
func (r *CapabilityRegistry) AddAgentLoad(agentID string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.agents[agentID]
	if !exists {
		return types.NewError(types.ErrNotFound, "agent %s not found", agentID)
	}
	profile.CurrentLoad = types.Clamp01(profile.CurrentLoad + delta)
	return nil
}

// RecordCollaboration folds a collaboration outcome in [0,1] into the
// agent's EMA collaboration score.
func (r *CapabilityRegistry) RecordCollaboration(agentID string, outcome float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.agents[agentID]
	if !exists {
		return types.NewError(types.ErrNotFound, "agent %s not found", agentID)
	}
	profile.CollaborationScore = types.BlendCollaboration(profile.CollaborationScore, outcome)

	r.logger.Debug("collaboration score updated",
		zap.String("agent_id", agentID),
		zap.Float64("score", profile.CollaborationScore),
	)
	return nil
}

// AgentsWithCapability returns copies of all agents holding the capability,
// in registration order.
func (r *CapabilityRegistry) AgentsWithCapability(capability string) []*types.AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, exists := r.capabilityIndex[capability]
	if !exists {
		return nil
	}
	agents := make([]*types.AgentProfile, 0, len(ids))
	for _, id := range r.order {
		if ids[id] {
			agents = append(agents, r.agents[id].Clone())
		}
	}
	return agents
}

// Size returns the number of registered agents.
func (r *CapabilityRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

func (r *CapabilityRegistry) indexCapability(capability, agentID string) {
	if r.capabilityIndex[capability] == nil {
		r.capabilityIndex[capability] = make(map[string]bool)
	}
	r.capabilityIndex[capability][agentID] = true
}
