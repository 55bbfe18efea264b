package types

import "time"

// NegotiationType classifies what a negotiation is about.
type NegotiationType string

const (
	NegotiationTaskAllocation     NegotiationType = "task_allocation"
	NegotiationResourceAllocation NegotiationType = "resource_allocation"
	NegotiationPrioritySetting    NegotiationType = "priority_setting"
	NegotiationConflictResolution NegotiationType = "conflict_resolution"
	NegotiationTaskReassignment   NegotiationType = "task_reassignment"
)

// NegotiationStatus is the lifecycle state of a negotiation.
// Transitions are monotonic: pending → active → one of the four terminal
// states. No field changes once a terminal state is reached.
type NegotiationStatus string

const (
	NegotiationPending    NegotiationStatus = "pending"
	NegotiationActive     NegotiationStatus = "active"
	NegotiationSuccessful NegotiationStatus = "successful"
	NegotiationFailed     NegotiationStatus = "failed"
	NegotiationTimeout    NegotiationStatus = "timeout"
	NegotiationCancelled  NegotiationStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s NegotiationStatus) IsTerminal() bool {
	switch s {
	case NegotiationSuccessful, NegotiationFailed, NegotiationTimeout, NegotiationCancelled:
		return true
	}
	return false
}

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalCountered ProposalStatus = "countered"
	ProposalWithdrawn ProposalStatus = "withdrawn"
)

// Response is a single respondent's answer to a proposal.
type Response string

const (
	ResponseAccept  Response = "accept"
	ResponseReject  Response = "reject"
	ResponseCounter Response = "counter"
)

// Valid reports whether the response is one of the three known answers.
func (r Response) Valid() bool {
	return r == ResponseAccept || r == ResponseReject || r == ResponseCounter
}

// ProposalContent is the payload of a proposal. Which fields are populated
// depends on the negotiation type; Payload carries anything free-form.
type ProposalContent struct {
	// Assignments maps agent ID to the task IDs the proposer wants that
	// agent to take (task_allocation / task_reassignment).
	Assignments map[string][]string `json:"assignments,omitempty"`

	// Resources maps resource name to the requested amount
	// (resource_allocation).
	Resources map[string]float64 `json:"resources,omitempty"`

	// Priorities maps task ID to the requested priority (priority_setting).
	Priorities map[string]int `json:"priorities,omitempty"`

	// Notes is a free-form rationale.
	Notes string `json:"notes,omitempty"`

	// Payload carries type-specific extra data.
	Payload map[string]any `json:"payload,omitempty"`
}

// Clone returns a deep copy of the content.
func (c *ProposalContent) Clone() *ProposalContent {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Assignments != nil {
		clone.Assignments = make(map[string][]string, len(c.Assignments))
		for k, v := range c.Assignments {
			clone.Assignments[k] = append([]string(nil), v...)
		}
	}
	if c.Resources != nil {
		clone.Resources = make(map[string]float64, len(c.Resources))
		for k, v := range c.Resources {
			clone.Resources[k] = v
		}
	}
	if c.Priorities != nil {
		clone.Priorities = make(map[string]int, len(c.Priorities))
		for k, v := range c.Priorities {
			clone.Priorities[k] = v
		}
	}
	if c.Payload != nil {
		clone.Payload = make(map[string]any, len(c.Payload))
		for k, v := range c.Payload {
			clone.Payload[k] = v
		}
	}
	return &clone
}

// Proposal is a single candidate resolution within a negotiation. It
// collects accept/reject/counter responses from every required responder
// and resolves exactly once, when the response set is complete.
type Proposal struct {
	// ID is the proposal's unique identifier.
	ID string `json:"id"`

	// NegotiationID back-references the owning negotiation (lookup only).
	NegotiationID string `json:"negotiation_id"`

	// ProposerID is the submitting agent.
	ProposerID string `json:"proposer_id"`

	// Type mirrors the owning negotiation's type.
	Type NegotiationType `json:"type"`

	// Content is the proposed resolution.
	Content *ProposalContent `json:"content"`

	// Status is the proposal's lifecycle state.
	Status ProposalStatus `json:"status"`

	// Responses maps responder agent ID to that agent's answer.
	Responses map[string]Response `json:"responses"`

	// CreatedAt is the submission timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Resolved reports whether the proposal has left the pending state.
func (p *Proposal) Resolved() bool {
	return p.Status != ProposalPending
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Content = p.Content.Clone()
	if p.Responses != nil {
		clone.Responses = make(map[string]Response, len(p.Responses))
		for k, v := range p.Responses {
			clone.Responses[k] = v
		}
	}
	return &clone
}

// Negotiation is a bounded multi-party exchange of proposals converging on
// an outcome or failure.
type Negotiation struct {
	// ID is the negotiation's unique identifier.
	ID string `json:"id"`

	// Type classifies what is being negotiated.
	Type NegotiationType `json:"type"`

	// InitiatorID is the agent that opened the negotiation.
	InitiatorID string `json:"initiator_id"`

	// Participants are the agents invited to respond, excluding the
	// initiator.
	Participants []string `json:"participants"`

	// Status is the negotiation's lifecycle state.
	Status NegotiationStatus `json:"status"`

	// Deadline, when set, bounds how long the negotiation may stay active.
	Deadline *time.Time `json:"deadline,omitempty"`

	// Context carries caller-supplied background for the negotiation.
	Context map[string]any `json:"context,omitempty"`

	// Proposals lists proposals in submission order.
	Proposals []*Proposal `json:"proposals"`

	// Outcome is the content of the accepted proposal, nil until successful.
	Outcome *ProposalContent `json:"outcome,omitempty"`

	// CreatedAt, StartedAt and CompletedAt bound the lifecycle.
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsParticipant reports whether the agent is the initiator or one of the
// participants.
func (n *Negotiation) IsParticipant(agentID string) bool {
	if agentID == n.InitiatorID {
		return true
	}
	for _, p := range n.Participants {
		if p == agentID {
			return true
		}
	}
	return false
}

// RequiredResponders returns the distinct agents whose responses a proposal
// from proposerID needs: participants plus initiator, minus the proposer.
// Proposal resolution compares the response count against this length, so
// no id may appear twice.
func (n *Negotiation) RequiredResponders(proposerID string) []string {
	seen := map[string]bool{proposerID: true}
	responders := make([]string, 0, len(n.Participants)+1)
	if !seen[n.InitiatorID] {
		seen[n.InitiatorID] = true
		responders = append(responders, n.InitiatorID)
	}
	for _, p := range n.Participants {
		if !seen[p] {
			seen[p] = true
			responders = append(responders, p)
		}
	}
	return responders
}

// Proposal returns the proposal with the given ID, nil when absent.
func (n *Negotiation) Proposal(proposalID string) *Proposal {
	for _, p := range n.Proposals {
		if p.ID == proposalID {
			return p
		}
	}
	return nil
}

// OpenProposals returns proposals still eligible for resolution or
// compromise: pending or countered ones, in submission order.
func (n *Negotiation) OpenProposals() []*Proposal {
	open := make([]*Proposal, 0, len(n.Proposals))
	for _, p := range n.Proposals {
		if p.Status == ProposalPending || p.Status == ProposalCountered {
			open = append(open, p)
		}
	}
	return open
}

// Clone returns a deep copy of the negotiation.
func (n *Negotiation) Clone() *Negotiation {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Participants = append([]string(nil), n.Participants...)
	if n.Context != nil {
		clone.Context = make(map[string]any, len(n.Context))
		for k, v := range n.Context {
			clone.Context[k] = v
		}
	}
	clone.Proposals = make([]*Proposal, len(n.Proposals))
	for i, p := range n.Proposals {
		clone.Proposals[i] = p.Clone()
	}
	clone.Outcome = n.Outcome.Clone()
	if n.Deadline != nil {
		d := *n.Deadline
		clone.Deadline = &d
	}
	if n.StartedAt != nil {
		s := *n.StartedAt
		clone.StartedAt = &s
	}
	if n.CompletedAt != nil {
		c := *n.CompletedAt
		clone.CompletedAt = &c
	}
	return &clone
}

// AllProposalsDead reports whether every proposal is rejected or withdrawn.
// A negotiation with at least one proposal and no live proposals has failed.
func (n *Negotiation) AllProposalsDead() bool {
	if len(n.Proposals) == 0 {
		return false
	}
	for _, p := range n.Proposals {
		if p.Status != ProposalRejected && p.Status != ProposalWithdrawn {
			return false
		}
	}
	return true
}
