// Package fixtures provides shared test data for the engine packages.
package fixtures

import (
	"time"

	"github.com/BaSui01/teamflow/types"
)

// ReviewPool returns a three-agent pool exercising the common formation
// cases: a strong generalist, a coding specialist and a weak candidate.
func ReviewPool() []*types.AgentProfile {
	return []*types.AgentProfile{
		{
			ID: "agent-a",
			Capabilities: map[string]float64{
				"reasoning": 0.9,
				"coding":    0.5,
			},
			Specializations:   []string{"analysis"},
			Availability:      1.0,
			PerformanceRating: 0.8,
		},
		{
			ID: "agent-b",
			Capabilities: map[string]float64{
				"coding": 0.9,
			},
			Specializations:   []string{"backend"},
			Availability:      1.0,
			PerformanceRating: 0.7,
		},
		{
			ID: "agent-c",
			Capabilities: map[string]float64{
				"reasoning": 0.4,
			},
			Availability:      1.0,
			PerformanceRating: 0.5,
		},
	}
}

// ReviewTask returns the task the ReviewPool pool is built around: it
// requires reasoning at 0.6 and coding at 0.7.
func ReviewTask() *types.TaskRequirement {
	return &types.TaskRequirement{
		ID:   "task-review",
		Type: "analysis",
		RequiredCapabilities: map[string]float64{
			"reasoning": 0.6,
			"coding":    0.7,
		},
		Complexity:  5,
		MinTeamSize: 1,
		MaxTeamSize: 3,
	}
}

// Agent builds a minimal available agent with the given capabilities.
func Agent(id string, caps map[string]float64) *types.AgentProfile {
	return &types.AgentProfile{
		ID:                id,
		Capabilities:      caps,
		Availability:      1.0,
		PerformanceRating: 0.6,
	}
}

// Task builds a minimal task with the given required capabilities.
func Task(id string, required map[string]float64) *types.TaskRequirement {
	return &types.TaskRequirement{
		ID:                   id,
		RequiredCapabilities: required,
		MinTeamSize:          1,
	}
}

// DeadlineIn returns a pointer to a deadline the given duration from now.
func DeadlineIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}
