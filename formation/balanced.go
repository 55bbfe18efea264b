package formation

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/types"
)

// hybridBoost scales a weight up on a matching task signal; a halved
// weight is scaled by 0.5.
const hybridBoost = 1.5

// urgentDeadline is the deadline horizon under which the hybrid strategy
// shifts weight towards performance.
const urgentDeadline = time.Hour

// NewBalanced scores candidates per role as a weighted blend of capability
// match, performance, specialization, collaboration and cost efficiency.
// Capability match contributes the fixed 0.3; the configured weights carry
// the remaining signals as given.
func NewBalanced(threshold float64, weights config.BalancedWeights, logger *zap.Logger) Strategy {
	return newRoleBased(StrategyBalanced, threshold, balancedScore(weights), logger)
}

// balancedScore builds the composite scoring function from a weight set.
func balancedScore(w config.BalancedWeights) scoreFunc {
	return func(a *types.AgentProfile, task *types.TaskRequirement, _ *types.Role, capScore float64) float64 {
		return capabilityWeight*capScore +
			w.Performance*a.PerformanceFor(task.Type) +
			w.Specialization*specializationSignal(a, task) +
			w.Collaboration*a.CollaborationScore +
			w.Cost*costEfficiency(a, task.Type)
	}
}

// Hybrid scores like Balanced but first adapts the weights to the task:
// high complexity boosts performance and specialization, low complexity
// boosts cost, an urgent deadline boosts performance and halves cost, and
// the "creative"/"analytical" task types boost specialization/performance
// respectively. The adjusted weights are re-normalized to sum to 1 before
// scoring.
type Hybrid struct {
	threshold float64
	weights   config.BalancedWeights
	logger    *zap.Logger
}

// NewHybrid creates the hybrid strategy.
func NewHybrid(threshold float64, weights config.BalancedWeights, logger *zap.Logger) *Hybrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hybrid{
		threshold: threshold,
		weights:   weights,
		logger:    logger.With(zap.String("strategy", StrategyHybrid)),
	}
}

// Name implements Strategy.
func (*Hybrid) Name() string { return StrategyHybrid }

// FormTeam implements Strategy.
func (h *Hybrid) FormTeam(in Input) (*types.Team, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	adjusted := AdjustWeights(h.weights, in.Task, time.Now())
	inner := newRoleBased(StrategyHybrid, h.threshold, balancedScore(adjusted), h.logger)
	return inner.FormTeam(in)
}

// AdjustWeights applies the hybrid task-signal adjustments to a weight set
// and re-normalizes the result to sum to 1. Exported for tests and for
// callers that want to inspect the effective weights.
func AdjustWeights(w config.BalancedWeights, task *types.TaskRequirement, now time.Time) config.BalancedWeights {
	if task.Complexity > 7 {
		w.Performance *= hybridBoost
		w.Specialization *= hybridBoost
	}
	if task.Complexity > 0 && task.Complexity < 3 {
		w.Cost *= hybridBoost
	}
	if task.Deadline != nil && task.Deadline.Sub(now) < urgentDeadline {
		w.Performance *= hybridBoost
		w.Cost *= 0.5
	}
	switch task.Type {
	case "creative":
		w.Specialization *= hybridBoost
	case "analytical":
		w.Performance *= hybridBoost
	}

	sum := w.Performance + w.Specialization + w.Collaboration + w.Cost
	if sum <= 0 {
		return w
	}
	w.Performance /= sum
	w.Specialization /= sum
	w.Collaboration /= sum
	w.Cost /= sum
	return w
}
