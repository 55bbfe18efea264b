package formation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// capabilityWeight is the fixed weight of the capability match score in
// every role-based strategy; the secondary signal carries the rest.
const capabilityWeight = 0.3

// secondaryWeight is the weight of the strategy-specific secondary signal
// in the four single-signal role strategies.
const secondaryWeight = 0.7

// scoreFunc rates one candidate for one role. capScore is the candidate's
// capability match score for the role, already computed by the shared loop.
type scoreFunc func(agent *types.AgentProfile, task *types.TaskRequirement, role *types.Role, capScore float64) float64

// roleBased is the shared engine of the per-role strategies: for each
// required role (highest priority first) it assigns the best-scoring
// unassigned candidate above the capability match threshold.
type roleBased struct {
	name      string
	threshold float64
	score     scoreFunc
	logger    *zap.Logger
}

func newRoleBased(name string, threshold float64, score scoreFunc, logger *zap.Logger) *roleBased {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &roleBased{
		name:      name,
		threshold: threshold,
		score:     score,
		logger:    logger.With(zap.String("strategy", name)),
	}
}

// Name implements Strategy.
func (s *roleBased) Name() string { return s.name }

// FormTeam implements Strategy.
func (s *roleBased) FormTeam(in Input) (*types.Team, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	task := in.Task

	roles := in.Roles
	if len(roles) == 0 {
		// Capability-only task: treat the whole requirement as one
		// synthetic role so the same assignment loop applies.
		roles = []*types.Role{{
			ID:                   "",
			Name:                 "general",
			RequiredCapabilities: task.RequiredCapabilityNames(),
		}}
	}
	sorted := append([]*types.Role(nil), roles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	team := newTeam(task, s.name)
	assigned := make(map[string]bool)

	for _, role := range sorted {
		if task.MaxTeamSize > 0 && team.Size() >= task.MaxTeamSize {
			break
		}

		var best *types.AgentProfile
		bestScore := 0.0
		for _, a := range in.Agents {
			if assigned[a.ID] {
				continue
			}
			capScore := a.CapabilityMatchScore(role.RequiredCapabilities)
			if capScore < s.threshold {
				continue
			}
			if a.PerformanceRating < role.MinPerformance {
				continue
			}
			score := s.score(a, task, role, capScore)
			if best == nil || score > bestScore {
				best = a
				bestScore = score
			}
		}

		if best == nil {
			s.logger.Warn("no candidate for role",
				zap.String("task_id", task.ID),
				zap.String("role_id", role.ID),
				zap.String("role", role.Name),
			)
			continue
		}

		assigned[best.ID] = true
		team.Members = append(team.Members, &types.TeamMember{
			AgentID:      best.ID,
			Role:         role.ID,
			Capabilities: coveredRequiredCaps(best, task),
		})
	}

	finalize(team, in)
	return team, nil
}

// roleProficiencyDepth is the capability-based secondary signal: the mean
// proficiency across the role's preferred capabilities, falling back to the
// required list for roles without preferences. Match score measures breadth
// over required capabilities, this measures depth over what the role values.
func roleProficiencyDepth(agent *types.AgentProfile, role *types.Role) float64 {
	caps := role.PreferredCapabilities
	if len(caps) == 0 {
		caps = role.RequiredCapabilities
	}
	if len(caps) == 0 {
		return agent.MeanProficiency()
	}
	sum := 0.0
	for _, cap := range caps {
		sum += agent.Proficiency(cap)
	}
	return sum / float64(len(caps))
}

// specializationSignal is 1.0 when the agent holds any of the task's
// specializations, 0.2 otherwise.
func specializationSignal(agent *types.AgentProfile, task *types.TaskRequirement) float64 {
	if specializationOverlap(agent, task) > 0 {
		return 1.0
	}
	return 0.2
}

// NewCapabilityBased selects per role by capability breadth and depth.
func NewCapabilityBased(threshold float64, logger *zap.Logger) Strategy {
	return newRoleBased(StrategyCapabilityBased, threshold,
		func(a *types.AgentProfile, _ *types.TaskRequirement, role *types.Role, capScore float64) float64 {
			return capabilityWeight*capScore + secondaryWeight*roleProficiencyDepth(a, role)
		}, logger)
}

// NewPerformanceBased selects per role by historical performance for the
// task's type.
func NewPerformanceBased(threshold float64, logger *zap.Logger) Strategy {
	return newRoleBased(StrategyPerformanceBased, threshold,
		func(a *types.AgentProfile, task *types.TaskRequirement, _ *types.Role, capScore float64) float64 {
			return capabilityWeight*capScore + secondaryWeight*a.PerformanceFor(task.Type)
		}, logger)
}

// NewSpecializationBased selects per role by domain specialization match.
func NewSpecializationBased(threshold float64, logger *zap.Logger) Strategy {
	return newRoleBased(StrategySpecializationBased, threshold,
		func(a *types.AgentProfile, task *types.TaskRequirement, _ *types.Role, capScore float64) float64 {
			return capabilityWeight*capScore + secondaryWeight*specializationSignal(a, task)
		}, logger)
}

// NewCostOptimized selects per role by cost efficiency (performance per
// cost unit).
func NewCostOptimized(threshold float64, logger *zap.Logger) Strategy {
	return newRoleBased(StrategyCostOptimized, threshold,
		func(a *types.AgentProfile, task *types.TaskRequirement, _ *types.Role, capScore float64) float64 {
			return capabilityWeight*capScore + secondaryWeight*costEfficiency(a, task.Type)
		}, logger)
}
