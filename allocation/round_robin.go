package allocation

import "github.com/BaSui01/teamflow/types"

// RoundRobin assigns tasks to agents in rotation: tasks sorted by priority
// descending, task i goes to agent i mod len(agents). No scoring; the
// deterministic tie-break is insertion order.
type RoundRobin struct{}

// Name implements Strategy.
func (*RoundRobin) Name() string { return StrategyRoundRobin }

// Allocate implements Strategy.
func (*RoundRobin) Allocate(
	tasks []*types.TaskRequirement,
	agents []*types.AgentProfile,
	_ map[string]map[string]float64,
	_ map[string]float64,
) map[string][]string {
	assignments := make(map[string][]string)
	if len(agents) == 0 || len(tasks) == 0 {
		return assignments
	}

	for i, task := range sortTasksByPriority(tasks) {
		agent := agents[i%len(agents)]
		assignments[agent.ID] = append(assignments[agent.ID], task.ID)
	}
	return assignments
}
