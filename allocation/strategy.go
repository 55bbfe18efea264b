// Package allocation provides task-to-agent allocation strategies.
//
// Strategies are pure functions of their inputs: a task list, an agent
// pool, an optional per-agent capability table and an optional workload
// map. They never touch registry state.
package allocation

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// Strategy allocates tasks to agents and returns agent ID → task IDs.
type Strategy interface {
	// Name returns the strategy's registry key.
	Name() string

	// Allocate distributes tasks over agents. capabilities maps agent ID to
	// that agent's capability proficiencies; workloads maps agent ID to its
	// current committed work. Both may be nil depending on the strategy.
	Allocate(
		tasks []*types.TaskRequirement,
		agents []*types.AgentProfile,
		capabilities map[string]map[string]float64,
		workloads map[string]float64,
	) map[string][]string
}

// Strategy registry keys.
const (
	StrategyRoundRobin         = "round_robin"
	StrategyWorkloadBalancing  = "workload_balancing"
	StrategyCapabilityMatching = "capability_matching"
)

// Registry maps strategy names to implementations, substituting a default
// for unknown names.
type Registry struct {
	mu          sync.RWMutex
	strategies  map[string]Strategy
	defaultName string
	logger      *zap.Logger
}

// NewRegistry creates a registry pre-populated with the built-in
// strategies. defaultName is substituted when a caller asks for an unknown
// strategy.
func NewRegistry(defaultName string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		strategies:  make(map[string]Strategy),
		defaultName: defaultName,
		logger:      logger.With(zap.String("component", "allocation_registry")),
	}
	r.Register(&RoundRobin{})
	r.Register(&WorkloadBalancing{})
	r.Register(&CapabilityMatching{})
	return r
}

// Register adds or replaces a strategy under its own name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the named strategy. Unknown names log a warning and
// substitute the default; asking for an unknown default is a programmer
// error and yields round robin.
func (r *Registry) Get(name string) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[name]; ok {
		return s
	}
	r.logger.Warn("unknown allocation strategy, substituting default",
		zap.String("requested", name),
		zap.String("default", r.defaultName),
	)
	if s, ok := r.strategies[r.defaultName]; ok {
		return s
	}
	return r.strategies[StrategyRoundRobin]
}

// sortTasksByPriority returns the tasks sorted by priority descending.
// The sort is stable so equal priorities keep insertion order.
func sortTasksByPriority(tasks []*types.TaskRequirement) []*types.TaskRequirement {
	sorted := append([]*types.TaskRequirement(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

// sortTasksByDuration returns the tasks sorted by estimated duration
// descending, stable for equal durations.
func sortTasksByDuration(tasks []*types.TaskRequirement) []*types.TaskRequirement {
	sorted := append([]*types.TaskRequirement(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EstimatedDuration > sorted[j].EstimatedDuration
	})
	return sorted
}

// workloadFactor penalizes loaded agents: 1 − min(load/10, 0.9).
func workloadFactor(load float64) float64 {
	penalty := load / 10
	if penalty > 0.9 {
		penalty = 0.9
	}
	return 1 - penalty
}

// leastLoadedAgent returns the agent with minimum workload, ties broken by
// pool order.
func leastLoadedAgent(agents []*types.AgentProfile, workloads map[string]float64) *types.AgentProfile {
	var best *types.AgentProfile
	bestLoad := 0.0
	for _, a := range agents {
		load := workloads[a.ID]
		if best == nil || load < bestLoad {
			best = a
			bestLoad = load
		}
	}
	return best
}
