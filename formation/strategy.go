// Package formation provides team formation strategies and the team
// lifecycle manager.
//
// Strategies are pure functions of their input snapshot: the task, the
// candidate agent pool and the resolved required roles. They never touch
// registry state; the manager queries the registries and applies load
// changes around them.
package formation

import (
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/teamflow/types"
)

// Strategy registry keys.
const (
	StrategyOptimalCoverage     = "optimal_coverage"
	StrategyBalancedWorkload    = "balanced_workload"
	StrategyCapabilityBased     = "capability_based"
	StrategyPerformanceBased    = "performance_based"
	StrategySpecializationBased = "specialization_based"
	StrategyCostOptimized       = "cost_optimized"
	StrategyBalanced            = "balanced"
	StrategyHybrid              = "hybrid"
)

// Input is the snapshot a strategy works from.
type Input struct {
	// Task is the requirement to form a team for.
	Task *types.TaskRequirement

	// Agents is the candidate pool, in registry order.
	Agents []*types.AgentProfile

	// Roles are the task's required roles resolved against the role
	// registry; empty for capability-only tasks.
	Roles []*types.Role
}

// Strategy forms a team for a task from a candidate pool.
//
// Coverage shortfalls (team under minimum size, uncovered capabilities)
// are soft: the strategy logs them and still returns the team. The only
// error condition is empty input.
type Strategy interface {
	// Name returns the strategy's registry key.
	Name() string

	// FormTeam builds a team from the input snapshot.
	FormTeam(in Input) (*types.Team, error)
}

// newTeam creates an empty team shell for the task.
func newTeam(task *types.TaskRequirement, strategy string) *types.Team {
	return &types.Team{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		Task:      task,
		Strategy:  strategy,
		Status:    types.TeamStatusForming,
		CreatedAt: time.Now(),
	}
}

// validateInput rejects a nil task or empty pool.
func validateInput(in Input) error {
	if in.Task == nil {
		return types.NewError(types.ErrEmptyInput, "task is nil")
	}
	if len(in.Agents) == 0 {
		return types.NewError(types.ErrEmptyInput, "agent pool is empty")
	}
	return nil
}

// coveredRequiredCaps returns the task's required capabilities the agent
// meets at their minimum proficiency, in deterministic order.
func coveredRequiredCaps(agent *types.AgentProfile, task *types.TaskRequirement) []string {
	var covered []string
	for _, cap := range task.RequiredCapabilityNames() {
		if agent.Proficiency(cap) >= task.RequiredCapabilities[cap] {
			covered = append(covered, cap)
		}
	}
	return covered
}

// specializationOverlap counts the task specializations the agent holds.
func specializationOverlap(agent *types.AgentProfile, task *types.TaskRequirement) int {
	n := 0
	for _, spec := range task.Specializations {
		if agent.HasSpecialization(spec) {
			n++
		}
	}
	return n
}

// costEfficiency returns performance per cost unit, clamped to [0,1] so it
// composes with the other unit-interval signals. A free agent is scored by
// raw performance rather than dividing by zero.
func costEfficiency(agent *types.AgentProfile, taskType string) float64 {
	perf := agent.PerformanceFor(taskType)
	if agent.CostPerUnit <= 0 {
		return perf
	}
	return types.Clamp01(perf / agent.CostPerUnit)
}

// finalize computes the team's coverage metrics and its predicted overall
// score. UpdateTeamPerformance later replaces the prediction with the
// observed outcome score.
func finalize(team *types.Team, in Input) {
	task := in.Task
	byID := make(map[string]*types.AgentProfile, len(in.Agents))
	for _, a := range in.Agents {
		byID[a.ID] = a
	}

	// Capability coverage: fraction of required capabilities some member
	// meets at its minimum proficiency.
	required := task.RequiredCapabilityNames()
	if len(required) == 0 {
		team.Performance.CapabilityCoverage = 1.0
	} else {
		covered := 0
		for _, cap := range required {
			min := task.RequiredCapabilities[cap]
			for _, m := range team.Members {
				if a, ok := byID[m.AgentID]; ok && a.Proficiency(cap) >= min {
					covered++
					break
				}
			}
		}
		team.Performance.CapabilityCoverage = float64(covered) / float64(len(required))
	}

	// Role coverage: fraction of required roles that were filled.
	if len(in.Roles) == 0 {
		team.Performance.RoleCoverage = 1.0
	} else {
		filled := make(map[string]bool)
		for _, m := range team.Members {
			if m.Role != "" {
				filled[m.Role] = true
			}
		}
		team.Performance.RoleCoverage = float64(len(filled)) / float64(len(in.Roles))
	}

	// Predicted score: coverage plus the members' historical signals.
	if len(team.Members) == 0 {
		team.Performance.OverallScore = 0
		return
	}
	var perf, collab, load float64
	for _, m := range team.Members {
		if a, ok := byID[m.AgentID]; ok {
			perf += a.PerformanceFor(task.Type)
			collab += a.CollaborationScore
			load += a.CurrentLoad
		}
	}
	n := float64(len(team.Members))
	team.Performance.OverallScore = types.Clamp01(
		0.4*team.Performance.CapabilityCoverage +
			0.3*(perf/n) +
			0.2*(1-load/n) +
			0.1*(collab/n),
	)
}
