package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/allocation"
	"github.com/BaSui01/teamflow/internal/metrics"
	"github.com/BaSui01/teamflow/negotiation"
	"github.com/BaSui01/teamflow/registry"
	"github.com/BaSui01/teamflow/types"
)

// ProposalSummary condenses one proposal for status reporting.
type ProposalSummary struct {
	ID         string                    `json:"id"`
	ProposerID string                    `json:"proposer_id"`
	Status     types.ProposalStatus      `json:"status"`
	Responses  map[string]types.Response `json:"responses"`
}

// NegotiationStatus is a serializable snapshot of one negotiation's state.
type NegotiationStatus struct {
	ID            string                  `json:"id"`
	Type          types.NegotiationType   `json:"type"`
	Status        types.NegotiationStatus `json:"status"`
	InitiatorID   string                  `json:"initiator_id"`
	Participants  []string                `json:"participants"`
	Proposals     []ProposalSummary       `json:"proposals"`
	OpenProposals int                     `json:"open_proposals"`
	Outcome       *types.ProposalContent  `json:"outcome,omitempty"`
	Deadline      *time.Time              `json:"deadline,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
}

// NegotiationService is the public facade over the negotiation manager,
// conflict resolver and allocation strategies. A nil collector disables
// metric emission.
type NegotiationService struct {
	negotiations *negotiation.Manager
	resolver     *negotiation.ConflictResolver
	allocations  *allocation.Registry
	agents       *registry.CapabilityRegistry
	collector    *metrics.Collector
	tracer       trace.Tracer
	logger       *zap.Logger
}

// NewNegotiationService creates the facade and hooks negotiation completion
// metrics into the manager.
func NewNegotiationService(
	negotiations *negotiation.Manager,
	resolver *negotiation.ConflictResolver,
	allocations *allocation.Registry,
	agents *registry.CapabilityRegistry,
	collector *metrics.Collector,
	logger *zap.Logger,
) *NegotiationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NegotiationService{
		negotiations: negotiations,
		resolver:     resolver,
		allocations:  allocations,
		agents:       agents,
		collector:    collector,
		tracer:       otel.Tracer(instrumentationName),
		logger:       logger.With(zap.String("component", "negotiation_service")),
	}
	if collector != nil {
		negotiations.SetCompletionHook(func(negotiationType types.NegotiationType, status types.NegotiationStatus) {
			collector.RecordNegotiationCompleted(string(negotiationType), string(status))
		})
	}
	return s
}

// InitiateNegotiation creates and immediately activates a negotiation.
func (s *NegotiationService) InitiateNegotiation(ctx context.Context, negotiationType types.NegotiationType, initiatorID string, participants []string, negCtx map[string]any, deadline *time.Time) (*types.Negotiation, error) {
	_, span := s.tracer.Start(ctx, "negotiation.initiate",
		trace.WithAttributes(
			attribute.String("negotiation.type", string(negotiationType)),
			attribute.Int("participants", len(participants)),
		))
	defer span.End()

	n, err := s.negotiations.Create(negotiationType, initiatorID, participants, negCtx, deadline)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.negotiations.Start(n.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("negotiation.id", n.ID))
	if s.collector != nil {
		s.collector.RecordNegotiationCreated(string(negotiationType))
	}
	return s.negotiations.Get(n.ID)
}

// SubmitProposal adds a proposal to an active negotiation.
func (s *NegotiationService) SubmitProposal(ctx context.Context, negotiationID, proposerID string, content *types.ProposalContent) (*types.Proposal, error) {
	_, span := s.tracer.Start(ctx, "negotiation.submit_proposal",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	p, err := s.negotiations.SubmitProposal(negotiationID, proposerID, content)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("proposal.id", p.ID))
	if s.collector != nil {
		s.collector.RecordProposalSubmitted()
	}
	return p, nil
}

// RespondToProposal records one responder's answer to a proposal.
func (s *NegotiationService) RespondToProposal(ctx context.Context, negotiationID, proposalID, responderID string, response types.Response) error {
	_, span := s.tracer.Start(ctx, "negotiation.respond",
		trace.WithAttributes(
			attribute.String("negotiation.id", negotiationID),
			attribute.String("proposal.id", proposalID),
			attribute.String("response", string(response)),
		))
	defer span.End()

	if err := s.negotiations.RespondToProposal(negotiationID, proposalID, responderID, response); err != nil {
		span.RecordError(err)
		return err
	}

	// A successful response can only resolve the proposal it answered;
	// resolved proposals refuse further responses.
	if s.collector != nil {
		if n, err := s.negotiations.Get(negotiationID); err == nil {
			if p := n.Proposal(proposalID); p != nil && p.Resolved() {
				s.collector.RecordProposalResolved(string(p.Status))
			}
		}
	}
	return nil
}

// WithdrawProposal retracts a pending proposal.
func (s *NegotiationService) WithdrawProposal(ctx context.Context, negotiationID, proposalID, agentID string) error {
	_, span := s.tracer.Start(ctx, "negotiation.withdraw_proposal",
		trace.WithAttributes(
			attribute.String("negotiation.id", negotiationID),
			attribute.String("proposal.id", proposalID),
		))
	defer span.End()

	if err := s.negotiations.WithdrawProposal(negotiationID, proposalID, agentID); err != nil {
		span.RecordError(err)
		return err
	}
	if s.collector != nil {
		s.collector.RecordProposalResolved(string(types.ProposalWithdrawn))
	}
	return nil
}

// CancelNegotiation aborts a pending or active negotiation.
func (s *NegotiationService) CancelNegotiation(ctx context.Context, negotiationID string) error {
	_, span := s.tracer.Start(ctx, "negotiation.cancel",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	if err := s.negotiations.Cancel(negotiationID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CheckTimeout applies a due deadline and reports whether the negotiation
// timed out.
func (s *NegotiationService) CheckTimeout(ctx context.Context, negotiationID string) (bool, error) {
	_, span := s.tracer.Start(ctx, "negotiation.check_timeout",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	timedOut, err := s.negotiations.CheckTimeout(negotiationID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("timed_out", timedOut))
	return timedOut, nil
}

// GetNegotiationStatus returns a snapshot of one negotiation.
func (s *NegotiationService) GetNegotiationStatus(ctx context.Context, negotiationID string) (*NegotiationStatus, error) {
	_, span := s.tracer.Start(ctx, "negotiation.status",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	n, err := s.negotiations.Get(negotiationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	summaries := make([]ProposalSummary, len(n.Proposals))
	for i, p := range n.Proposals {
		summaries[i] = ProposalSummary{
			ID:         p.ID,
			ProposerID: p.ProposerID,
			Status:     p.Status,
			Responses:  p.Responses,
		}
	}

	return &NegotiationStatus{
		ID:            n.ID,
		Type:          n.Type,
		Status:        n.Status,
		InitiatorID:   n.InitiatorID,
		Participants:  n.Participants,
		Proposals:     summaries,
		OpenProposals: len(n.OpenProposals()),
		Outcome:       n.Outcome,
		Deadline:      n.Deadline,
		CreatedAt:     n.CreatedAt,
		CompletedAt:   n.CompletedAt,
	}, nil
}

// ResolveConflict returns the open proposal with the strongest support.
func (s *NegotiationService) ResolveConflict(ctx context.Context, negotiationID string) (*types.Proposal, error) {
	_, span := s.tracer.Start(ctx, "negotiation.resolve_conflict",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	n, err := s.negotiations.Get(negotiationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	best := s.resolver.ResolveConflict(n)
	if best == nil {
		err := types.NewError(types.ErrNotFound, "negotiation %s has no open proposals", negotiationID)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("proposal.id", best.ID))
	if s.collector != nil {
		s.collector.RecordConflictResolved()
	}
	return best, nil
}

// SuggestCompromise synthesizes a middle-ground proposal content from the
// negotiation's open proposals. The caller decides whether to submit it.
func (s *NegotiationService) SuggestCompromise(ctx context.Context, negotiationID string) (*types.ProposalContent, error) {
	_, span := s.tracer.Start(ctx, "negotiation.suggest_compromise",
		trace.WithAttributes(attribute.String("negotiation.id", negotiationID)))
	defer span.End()

	n, err := s.negotiations.Get(negotiationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	content, err := s.resolver.SuggestCompromise(n)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordCompromiseSuggested(string(n.Type))
	}
	return content, nil
}

// AllocateTasks distributes tasks over agents under the named allocation
// strategy. Empty agentIDs means every registered agent; unknown IDs are
// skipped with a warning.
func (s *NegotiationService) AllocateTasks(ctx context.Context, tasks []*types.TaskRequirement, agentIDs []string, strategyName string) (map[string][]string, error) {
	_, span := s.tracer.Start(ctx, "negotiation.allocate_tasks",
		trace.WithAttributes(
			attribute.String("strategy", strategyName),
			attribute.Int("tasks", len(tasks)),
		))
	defer span.End()

	if len(tasks) == 0 {
		err := types.NewError(types.ErrEmptyInput, "task list is empty")
		span.RecordError(err)
		return nil, err
	}

	var agents []*types.AgentProfile
	if len(agentIDs) == 0 {
		agents = s.agents.ListAgents()
	} else {
		for _, id := range agentIDs {
			a, err := s.agents.GetAgent(id)
			if err != nil {
				s.logger.Warn("unknown agent skipped", zap.String("agent_id", id))
				continue
			}
			agents = append(agents, a)
		}
	}
	if len(agents) == 0 {
		err := types.NewError(types.ErrEmptyInput, "no agents available for allocation")
		span.RecordError(err)
		return nil, err
	}

	capabilities := make(map[string]map[string]float64, len(agents))
	workloads := make(map[string]float64, len(agents))
	for _, a := range agents {
		capabilities[a.ID] = a.Capabilities
		workloads[a.ID] = a.CurrentLoad
	}

	strategy := s.allocations.Get(strategyName)
	result := strategy.Allocate(tasks, agents, capabilities, workloads)

	span.SetAttributes(attribute.String("strategy.used", strategy.Name()))
	if s.collector != nil {
		s.collector.RecordAllocation(strategy.Name())
	}
	return result, nil
}
