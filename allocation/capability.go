package allocation

import "github.com/BaSui01/teamflow/types"

// CapabilityMatching scores each agent per task from the capability table,
// weighted by the task's required-capability map when present, penalized by
// current workload. Falls back to round robin without a capability table
// and to the least-loaded agent when no agent scores above zero.
type CapabilityMatching struct{}

// Name implements Strategy.
func (*CapabilityMatching) Name() string { return StrategyCapabilityMatching }

// Allocate implements Strategy.
func (s *CapabilityMatching) Allocate(
	tasks []*types.TaskRequirement,
	agents []*types.AgentProfile,
	capabilities map[string]map[string]float64,
	workloads map[string]float64,
) map[string][]string {
	if len(capabilities) == 0 {
		// No capability table: nothing to score on.
		return (&RoundRobin{}).Allocate(tasks, agents, nil, workloads)
	}

	assignments := make(map[string][]string)
	if len(agents) == 0 || len(tasks) == 0 {
		return assignments
	}

	for _, task := range tasks {
		best := s.bestAgent(task, agents, capabilities, workloads)
		if best == nil {
			// Every agent scored zero; place the task on the least loaded one.
			best = leastLoadedAgent(agents, workloads)
		}
		assignments[best.ID] = append(assignments[best.ID], task.ID)
	}
	return assignments
}

// bestAgent returns the highest-scoring agent for the task, nil when no
// agent scores above zero. Ties keep the earlier agent.
func (*CapabilityMatching) bestAgent(
	task *types.TaskRequirement,
	agents []*types.AgentProfile,
	capabilities map[string]map[string]float64,
	workloads map[string]float64,
) *types.AgentProfile {
	var best *types.AgentProfile
	bestScore := 0.0

	for _, agent := range agents {
		agentCaps := capabilities[agent.ID]
		var base float64
		if len(task.RequiredCapabilities) > 0 {
			// Weighted sum over the task's capability weights.
			for cap, weight := range task.RequiredCapabilities {
				base += weight * agentCaps[cap]
			}
		} else {
			// No weights on the task: unweighted mean of the agent's table.
			if len(agentCaps) > 0 {
				sum := 0.0
				for _, v := range agentCaps {
					sum += v
				}
				base = sum / float64(len(agentCaps))
			}
		}

		score := base * workloadFactor(workloads[agent.ID])
		if score > bestScore {
			best = agent
			bestScore = score
		}
	}
	return best
}
