// Package negotiation implements the multi-party negotiation state machine
// and its conflict resolution helpers.
//
// A negotiation moves pending → active → one of successful, failed, timeout
// or cancelled, and never changes after reaching a terminal state. All
// per-negotiation mutation is serialized on an entry lock, so concurrent
// responses to the same proposal resolve it exactly once.
package negotiation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/types"
)

// entry pairs a negotiation with its mutation lock.
type entry struct {
	mu sync.Mutex
	n  *types.Negotiation
}

// Manager owns all negotiations and drives their state machines.
//
// Timeouts are lazy: nothing fires when a deadline passes. The expiry is
// applied on the next operation touching the negotiation, or by an explicit
// CheckTimeout poll.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	cfg    config.NegotiationConfig
	logger *zap.Logger

	// onComplete, when set, fires once per negotiation as it reaches a
	// terminal state. Called with the entry lock held; keep it cheap.
	onComplete func(negotiationType types.NegotiationType, status types.NegotiationStatus)
}

// NewManager creates a negotiation manager.
func NewManager(cfg config.NegotiationConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		entries: make(map[string]*entry),
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "negotiation_manager")),
	}
}

// Create opens a new negotiation in the pending state. A nil deadline falls
// back to the configured default; a zero default leaves the negotiation
// unbounded.
func (m *Manager) Create(negotiationType types.NegotiationType, initiatorID string, participants []string, negCtx map[string]any, deadline *time.Time) (*types.Negotiation, error) {
	if initiatorID == "" {
		return nil, types.NewError(types.ErrEmptyInput, "initiator id is empty")
	}
	if len(participants) == 0 {
		return nil, types.NewError(types.ErrEmptyInput, "participant list is empty")
	}

	// Participants form a set excluding the initiator. Duplicates or a
	// listed initiator would inflate the required-responder count past the
	// number of distinct agents, leaving proposals unresolvable.
	seen := make(map[string]bool, len(participants))
	deduped := make([]string, 0, len(participants))
	for _, id := range participants {
		if id == "" || id == initiatorID || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	if len(deduped) == 0 {
		return nil, types.NewError(types.ErrEmptyInput,
			"participant list has no agents besides the initiator")
	}

	if deadline == nil && m.cfg.DefaultDeadline > 0 {
		d := time.Now().Add(m.cfg.DefaultDeadline)
		deadline = &d
	}

	n := &types.Negotiation{
		ID:           uuid.New().String(),
		Type:         negotiationType,
		InitiatorID:  initiatorID,
		Participants: deduped,
		Status:       types.NegotiationPending,
		Deadline:     deadline,
		Context:      negCtx,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	m.entries[n.ID] = &entry{n: n}
	m.order = append(m.order, n.ID)
	m.mu.Unlock()

	m.logger.Info("negotiation created",
		zap.String("negotiation_id", n.ID),
		zap.String("type", string(negotiationType)),
		zap.String("initiator_id", initiatorID),
		zap.Int("participants", len(deduped)),
	)
	return n.Clone(), nil
}

// SetCompletionHook installs a callback observing terminal transitions.
// Set it before the manager is shared between goroutines.
func (m *Manager) SetCompletionHook(hook func(negotiationType types.NegotiationType, status types.NegotiationStatus)) {
	m.onComplete = hook
}

// entry fetches the lock entry for a negotiation id.
func (m *Manager) entry(negotiationID string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[negotiationID]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "negotiation %s not found", negotiationID)
	}
	return e, nil
}

// expireIfDue applies a passed deadline to an active negotiation. Caller
// holds the entry lock.
func (m *Manager) expireIfDue(n *types.Negotiation, now time.Time) {
	if n.Status != types.NegotiationActive {
		return
	}
	if n.Deadline == nil || now.Before(*n.Deadline) {
		return
	}
	m.complete(n, types.NegotiationTimeout, now)
}

// complete moves a negotiation into a terminal state. Caller holds the
// entry lock.
func (m *Manager) complete(n *types.Negotiation, status types.NegotiationStatus, now time.Time) {
	n.Status = status
	n.CompletedAt = &now
	if m.onComplete != nil {
		m.onComplete(n.Type, status)
	}
	m.logger.Info("negotiation completed",
		zap.String("negotiation_id", n.ID),
		zap.String("status", string(status)),
	)
}

// Start activates a pending negotiation.
func (m *Manager) Start(negotiationID string) error {
	e, err := m.entry(negotiationID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.n.Status != types.NegotiationPending {
		return types.NewError(types.ErrInvalidTransition,
			"negotiation %s is %s, only pending negotiations can start", negotiationID, e.n.Status)
	}
	now := time.Now()
	e.n.Status = types.NegotiationActive
	e.n.StartedAt = &now

	m.logger.Info("negotiation started", zap.String("negotiation_id", negotiationID))
	return nil
}

// Cancel aborts a pending or active negotiation.
func (m *Manager) Cancel(negotiationID string) error {
	e, err := m.entry(negotiationID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	m.expireIfDue(e.n, now)
	if e.n.Status.IsTerminal() {
		return types.NewError(types.ErrInvalidTransition,
			"negotiation %s is already %s", negotiationID, e.n.Status)
	}
	m.complete(e.n, types.NegotiationCancelled, now)
	return nil
}

// CheckTimeout applies a passed deadline and reports whether the
// negotiation is timed out. Safe to call repeatedly and on terminal
// negotiations.
func (m *Manager) CheckTimeout(negotiationID string) (bool, error) {
	e, err := m.entry(negotiationID)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	m.expireIfDue(e.n, time.Now())
	return e.n.Status == types.NegotiationTimeout, nil
}

// SubmitProposal adds a proposal to an active negotiation. Only the
// initiator or a participant may propose.
func (m *Manager) SubmitProposal(negotiationID, proposerID string, content *types.ProposalContent) (*types.Proposal, error) {
	if content == nil {
		return nil, types.NewError(types.ErrEmptyInput, "proposal content is nil")
	}
	e, err := m.entry(negotiationID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.n
	m.expireIfDue(n, time.Now())
	if n.Status != types.NegotiationActive {
		return nil, types.NewError(types.ErrInvalidTransition,
			"negotiation %s is %s, proposals need an active negotiation", negotiationID, n.Status)
	}
	if !n.IsParticipant(proposerID) {
		return nil, types.NewError(types.ErrNotAParticipant,
			"agent %s is not part of negotiation %s", proposerID, negotiationID)
	}

	p := &types.Proposal{
		ID:            uuid.New().String(),
		NegotiationID: n.ID,
		ProposerID:    proposerID,
		Type:          n.Type,
		Content:       content.Clone(),
		Status:        types.ProposalPending,
		Responses:     make(map[string]types.Response),
		CreatedAt:     time.Now(),
	}
	n.Proposals = append(n.Proposals, p)

	m.logger.Info("proposal submitted",
		zap.String("negotiation_id", n.ID),
		zap.String("proposal_id", p.ID),
		zap.String("proposer_id", proposerID),
	)
	return p.Clone(), nil
}

// RespondToProposal records one responder's answer to a pending proposal.
// Every required responder answers at most once; when the last answer
// arrives the proposal resolves and may complete the negotiation.
func (m *Manager) RespondToProposal(negotiationID, proposalID, responderID string, response types.Response) error {
	if !response.Valid() {
		return types.NewError(types.ErrInvalidResponse, "unknown response %q", response)
	}
	e, err := m.entry(negotiationID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.n
	now := time.Now()
	m.expireIfDue(n, now)
	if n.Status != types.NegotiationActive {
		return types.NewError(types.ErrInvalidTransition,
			"negotiation %s is %s, responses need an active negotiation", negotiationID, n.Status)
	}

	p := n.Proposal(proposalID)
	if p == nil {
		return types.NewError(types.ErrNotFound,
			"proposal %s not found in negotiation %s", proposalID, negotiationID)
	}
	if p.Resolved() {
		return types.NewError(types.ErrInvalidTransition,
			"proposal %s is already %s", proposalID, p.Status)
	}

	required := n.RequiredResponders(p.ProposerID)
	isRequired := false
	for _, r := range required {
		if r == responderID {
			isRequired = true
			break
		}
	}
	if !isRequired {
		return types.NewError(types.ErrNotAParticipant,
			"agent %s is not a required responder for proposal %s", responderID, proposalID)
	}
	if _, answered := p.Responses[responderID]; answered {
		return types.NewError(types.ErrInvalidTransition,
			"agent %s already responded to proposal %s", responderID, proposalID)
	}

	p.Responses[responderID] = response
	m.logger.Debug("response recorded",
		zap.String("negotiation_id", n.ID),
		zap.String("proposal_id", p.ID),
		zap.String("responder_id", responderID),
		zap.String("response", string(response)),
	)

	if len(p.Responses) == len(required) {
		m.resolveProposal(n, p, now)
	}
	return nil
}

// resolveProposal applies the complete response set: a unanimous accept
// succeeds the negotiation, any reject kills the proposal, otherwise a
// counter leaves the proposal open for a follow-up. Caller holds the entry
// lock.
func (m *Manager) resolveProposal(n *types.Negotiation, p *types.Proposal, now time.Time) {
	rejected, countered := false, false
	for _, r := range p.Responses {
		switch r {
		case types.ResponseReject:
			rejected = true
		case types.ResponseCounter:
			countered = true
		}
	}

	switch {
	case rejected:
		p.Status = types.ProposalRejected
		if n.AllProposalsDead() {
			m.complete(n, types.NegotiationFailed, now)
		}
	case countered:
		p.Status = types.ProposalCountered
	default:
		p.Status = types.ProposalAccepted
		n.Outcome = p.Content.Clone()
		m.complete(n, types.NegotiationSuccessful, now)
	}

	m.logger.Info("proposal resolved",
		zap.String("negotiation_id", n.ID),
		zap.String("proposal_id", p.ID),
		zap.String("status", string(p.Status)),
	)
}

// WithdrawProposal retracts a pending proposal. Only the proposer may
// withdraw, and only before the proposal resolves.
func (m *Manager) WithdrawProposal(negotiationID, proposalID, agentID string) error {
	e, err := m.entry(negotiationID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.n
	now := time.Now()
	m.expireIfDue(n, now)
	if n.Status != types.NegotiationActive {
		return types.NewError(types.ErrInvalidTransition,
			"negotiation %s is %s, withdrawals need an active negotiation", negotiationID, n.Status)
	}

	p := n.Proposal(proposalID)
	if p == nil {
		return types.NewError(types.ErrNotFound,
			"proposal %s not found in negotiation %s", proposalID, negotiationID)
	}
	if p.ProposerID != agentID {
		return types.NewError(types.ErrNotAParticipant,
			"agent %s did not submit proposal %s", agentID, proposalID)
	}
	if p.Resolved() {
		return types.NewError(types.ErrInvalidTransition,
			"proposal %s is already %s", proposalID, p.Status)
	}

	p.Status = types.ProposalWithdrawn
	if n.AllProposalsDead() {
		m.complete(n, types.NegotiationFailed, now)
	}

	m.logger.Info("proposal withdrawn",
		zap.String("negotiation_id", n.ID),
		zap.String("proposal_id", proposalID),
	)
	return nil
}

// Get returns a deep copy of a negotiation, applying a due timeout first.
func (m *Manager) Get(negotiationID string) (*types.Negotiation, error) {
	e, err := m.entry(negotiationID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	m.expireIfDue(e.n, time.Now())
	return e.n.Clone(), nil
}

// List returns deep copies of all negotiations in creation order.
func (m *Manager) List() []*types.Negotiation {
	m.mu.RLock()
	ids := append([]string(nil), m.order...)
	m.mu.RUnlock()

	out := make([]*types.Negotiation, 0, len(ids))
	for _, id := range ids {
		if n, err := m.Get(id); err == nil {
			out = append(out, n)
		}
	}
	return out
}
