package formation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// doubleUpThreshold lets an agent join without adding new coverage when it
// is this strong on an already-covered required capability.
const doubleUpThreshold = 0.8

// OptimalCoverage greedily assembles the smallest strong team that covers
// every required capability, preferring agents whose summed required
// proficiency and specialization overlap score highest.
type OptimalCoverage struct {
	logger *zap.Logger
}

// NewOptimalCoverage creates the strategy.
func NewOptimalCoverage(logger *zap.Logger) *OptimalCoverage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimalCoverage{logger: logger.With(zap.String("strategy", StrategyOptimalCoverage))}
}

// Name implements Strategy.
func (*OptimalCoverage) Name() string { return StrategyOptimalCoverage }

// FormTeam implements Strategy.
func (s *OptimalCoverage) FormTeam(in Input) (*types.Team, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	task := in.Task
	required := task.RequiredCapabilityNames()

	// Score: summed proficiency over required capabilities plus 2.0 per
	// matching domain specialization.
	type scored struct {
		agent *types.AgentProfile
		score float64
	}
	candidates := make([]scored, 0, len(in.Agents))
	for _, a := range in.Agents {
		sum := 0.0
		for _, cap := range required {
			sum += a.Proficiency(cap)
		}
		sum += 2.0 * float64(specializationOverlap(a, task))
		candidates = append(candidates, scored{agent: a, score: sum})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	team := newTeam(task, s.Name())
	covered := make(map[string]bool)

	for _, cand := range candidates {
		if task.MaxTeamSize > 0 && team.Size() >= task.MaxTeamSize {
			break
		}
		if len(covered) == len(required) && team.Size() >= task.MinTeamSize {
			break
		}

		caps := coveredRequiredCaps(cand.agent, task)
		addsCoverage := false
		strongOnCovered := false
		for _, cap := range caps {
			if !covered[cap] {
				addsCoverage = true
			} else if cand.agent.Proficiency(cap) > doubleUpThreshold {
				strongOnCovered = true
			}
		}

		if !addsCoverage && !strongOnCovered && team.Size() >= task.MinTeamSize {
			continue
		}

		team.Members = append(team.Members, &types.TeamMember{
			AgentID:      cand.agent.ID,
			Capabilities: caps,
		})
		for _, cap := range caps {
			covered[cap] = true
		}
	}

	s.logShortfalls(team, task, covered, required)
	finalize(team, in)
	return team, nil
}

// logShortfalls reports soft coverage failures; the team is still returned.
func (s *OptimalCoverage) logShortfalls(team *types.Team, task *types.TaskRequirement, covered map[string]bool, required []string) {
	if team.Size() < task.MinTeamSize {
		s.logger.Warn("team below minimum size",
			zap.String("code", string(types.ErrUnderMinTeamSize)),
			zap.String("task_id", task.ID),
			zap.Int("size", team.Size()),
			zap.Int("min", task.MinTeamSize),
		)
	}
	var missing []string
	for _, cap := range required {
		if !covered[cap] {
			missing = append(missing, cap)
		}
	}
	if len(missing) > 0 {
		s.logger.Warn("required capabilities uncovered",
			zap.String("code", string(types.ErrUncoveredCapabilities)),
			zap.String("task_id", task.ID),
			zap.Strings("missing", missing),
		)
	}
}

// BalancedWorkload picks the least-loaded agents that can each cover at
// least one required capability, until coverage and size bounds hold.
type BalancedWorkload struct {
	logger *zap.Logger
}

// NewBalancedWorkload creates the strategy.
func NewBalancedWorkload(logger *zap.Logger) *BalancedWorkload {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalancedWorkload{logger: logger.With(zap.String("strategy", StrategyBalancedWorkload))}
}

// Name implements Strategy.
func (*BalancedWorkload) Name() string { return StrategyBalancedWorkload }

// FormTeam implements Strategy.
func (s *BalancedWorkload) FormTeam(in Input) (*types.Team, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	task := in.Task
	required := task.RequiredCapabilityNames()

	// Only agents meeting at least one required capability at its minimum
	// proficiency qualify.
	eligible := make([]*types.AgentProfile, 0, len(in.Agents))
	for _, a := range in.Agents {
		if len(coveredRequiredCaps(a, task)) > 0 {
			eligible = append(eligible, a)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CurrentLoad < eligible[j].CurrentLoad
	})

	team := newTeam(task, s.Name())
	covered := make(map[string]bool)

	for _, a := range eligible {
		if task.MaxTeamSize > 0 && team.Size() >= task.MaxTeamSize {
			break
		}
		if len(covered) == len(required) && team.Size() >= task.MinTeamSize {
			break
		}
		caps := coveredRequiredCaps(a, task)
		team.Members = append(team.Members, &types.TeamMember{AgentID: a.ID, Capabilities: caps})
		for _, cap := range caps {
			covered[cap] = true
		}
	}

	if team.Size() < task.MinTeamSize {
		s.logger.Warn("team below minimum size",
			zap.String("code", string(types.ErrUnderMinTeamSize)),
			zap.String("task_id", task.ID),
			zap.Int("size", team.Size()),
			zap.Int("min", task.MinTeamSize),
		)
	}
	finalize(team, in)
	return team, nil
}
