package allocation

import "github.com/BaSui01/teamflow/types"

// WorkloadBalancing assigns the longest tasks first, each to the agent with
// the currently smallest accumulated workload. Greedy, not globally
// optimal.
type WorkloadBalancing struct{}

// Name implements Strategy.
func (*WorkloadBalancing) Name() string { return StrategyWorkloadBalancing }

// Allocate implements Strategy.
func (*WorkloadBalancing) Allocate(
	tasks []*types.TaskRequirement,
	agents []*types.AgentProfile,
	_ map[string]map[string]float64,
	workloads map[string]float64,
) map[string][]string {
	assignments := make(map[string][]string)
	if len(agents) == 0 || len(tasks) == 0 {
		return assignments
	}

	// Work on a private copy so the caller's workload map stays untouched.
	running := make(map[string]float64, len(agents))
	for _, a := range agents {
		running[a.ID] = workloads[a.ID]
	}

	for _, task := range sortTasksByDuration(tasks) {
		agent := leastLoadedAgent(agents, running)
		assignments[agent.ID] = append(assignments[agent.ID], task.ID)
		running[agent.ID] += task.EstimatedDuration
	}
	return assignments
}
