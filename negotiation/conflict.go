package negotiation

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// ConflictResolver ranks competing proposals and synthesizes compromises
// when a negotiation stalls on them. It works on negotiation snapshots and
// never mutates negotiation state; callers submit a suggested compromise as
// a regular proposal.
type ConflictResolver struct {
	logger *zap.Logger
}

// NewConflictResolver creates a conflict resolver.
func NewConflictResolver(logger *zap.Logger) *ConflictResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictResolver{logger: logger.With(zap.String("component", "conflict_resolver"))}
}

// ResolveConflict picks the open proposal with the most accept responses,
// earliest submission winning ties. Nil when the negotiation has no open
// proposals.
func (r *ConflictResolver) ResolveConflict(n *types.Negotiation) *types.Proposal {
	var best *types.Proposal
	bestAccepts := -1
	for _, p := range n.OpenProposals() {
		accepts := 0
		for _, resp := range p.Responses {
			if resp == types.ResponseAccept {
				accepts++
			}
		}
		if accepts > bestAccepts {
			best = p
			bestAccepts = accepts
		}
	}
	if best != nil {
		r.logger.Debug("conflict resolved",
			zap.String("negotiation_id", n.ID),
			zap.String("proposal_id", best.ID),
			zap.Int("accepts", bestAccepts),
		)
	}
	return best
}

// SuggestCompromise synthesizes a middle-ground proposal content from the
// negotiation's open proposals. At least two open proposals are required,
// and only allocation, reassignment, resource and priority negotiations
// have a compromise strategy.
func (r *ConflictResolver) SuggestCompromise(n *types.Negotiation) (*types.ProposalContent, error) {
	open := n.OpenProposals()
	if len(open) < 2 {
		return nil, types.NewError(types.ErrNoCompromise,
			"negotiation %s has %d open proposals, compromise needs at least 2", n.ID, len(open))
	}

	switch n.Type {
	case types.NegotiationTaskAllocation, types.NegotiationTaskReassignment:
		return r.balanceAssignments(open), nil
	case types.NegotiationResourceAllocation:
		return r.averageResources(open), nil
	case types.NegotiationPrioritySetting:
		return r.averagePriorities(open), nil
	default:
		return nil, types.NewError(types.ErrNoCompromise,
			"no compromise strategy for %s negotiations", n.Type)
	}
}

// balanceAssignments gives each proposed task to one of the agents that
// asked for it, always the one holding the fewest tasks in the compromise
// built so far. Tasks and candidates are visited in sorted order so the
// result is deterministic.
func (r *ConflictResolver) balanceAssignments(open []*types.Proposal) *types.ProposalContent {
	requesters := make(map[string]map[string]bool)
	for _, p := range open {
		for agent, tasks := range p.Content.Assignments {
			for _, task := range tasks {
				if requesters[task] == nil {
					requesters[task] = make(map[string]bool)
				}
				requesters[task][agent] = true
			}
		}
	}
	if len(requesters) == 0 {
		return &types.ProposalContent{Notes: "no assignments to balance"}
	}

	tasks := make([]string, 0, len(requesters))
	for task := range requesters {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)

	assignments := make(map[string][]string)
	for _, task := range tasks {
		candidates := sortedKeys(requesters[task])
		least := candidates[0]
		for _, agent := range candidates[1:] {
			if len(assignments[agent]) < len(assignments[least]) {
				least = agent
			}
		}
		assignments[least] = append(assignments[least], task)
	}

	return &types.ProposalContent{
		Assignments: assignments,
		Notes:       "balanced task split across requesting agents",
	}
}

// averageResources sets each resource to the mean of the non-zero amounts
// requested for it across the open proposals.
func (r *ConflictResolver) averageResources(open []*types.Proposal) *types.ProposalContent {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range open {
		for name, amount := range p.Content.Resources {
			if amount == 0 {
				continue
			}
			sums[name] += amount
			counts[name]++
		}
	}

	resources := make(map[string]float64, len(sums))
	for name, sum := range sums {
		resources[name] = sum / float64(counts[name])
	}

	return &types.ProposalContent{
		Resources: resources,
		Notes:     "mean of requested amounts per resource",
	}
}

// averagePriorities sets each task's priority to the rounded mean of the
// non-zero priorities requested for it across the open proposals.
func (r *ConflictResolver) averagePriorities(open []*types.Proposal) *types.ProposalContent {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, p := range open {
		for task, priority := range p.Content.Priorities {
			if priority == 0 {
				continue
			}
			sums[task] += priority
			counts[task]++
		}
	}

	priorities := make(map[string]int, len(sums))
	for task, sum := range sums {
		priorities[task] = int(math.Round(float64(sum) / float64(counts[task])))
	}

	return &types.ProposalContent{
		Priorities: priorities,
		Notes:      "rounded mean of requested priorities per task",
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
