package negotiation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/types"
)

func newTestManager() *Manager {
	return NewManager(config.NegotiationConfig{DefaultDeadline: 30 * time.Minute}, nil)
}

// startNegotiation creates and activates a negotiation with the given
// participant set.
func startNegotiation(t *testing.T, m *Manager, negotiationType types.NegotiationType, initiator string, participants ...string) *types.Negotiation {
	t.Helper()
	n, err := m.Create(negotiationType, initiator, participants, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(n.ID))
	return n
}

func TestManager_Create(t *testing.T) {
	m := newTestManager()

	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob", "carol"}, nil, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, types.NegotiationPending, n.Status)
	assert.Equal(t, "alice", n.InitiatorID)
	require.NotNil(t, n.Deadline, "default deadline applies when none given")
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *n.Deadline, time.Minute)
}

func TestManager_CreateValidatesInput(t *testing.T) {
	m := newTestManager()

	_, err := m.Create(types.NegotiationTaskAllocation, "", []string{"bob"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrEmptyInput, types.GetErrorCode(err))

	_, err = m.Create(types.NegotiationTaskAllocation, "alice", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrEmptyInput, types.GetErrorCode(err))
}

func TestManager_CreateDeduplicatesParticipants(t *testing.T) {
	m := newTestManager()

	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"alice", "bob", "bob", ""}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, n.Participants)

	_, err = m.Create(types.NegotiationTaskAllocation, "alice", []string{"alice", "alice"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrEmptyInput, types.GetErrorCode(err))
}

func TestManager_ResolvesWhenInitiatorListedAsParticipant(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "alice", "bob")

	p, err := m.SubmitProposal(n.ID, "bob", &types.ProposalContent{Notes: "bob takes the task"})
	require.NoError(t, err)

	// alice is the only distinct required responder; her answer alone must
	// resolve the proposal.
	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "alice", types.ResponseAccept))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalAccepted, got.Proposals[0].Status)
	assert.Equal(t, types.NegotiationSuccessful, got.Status)
	require.NotNil(t, got.Outcome)
}

func TestManager_CreateExplicitDeadline(t *testing.T) {
	m := newTestManager()
	deadline := time.Now().Add(5 * time.Minute)

	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, &deadline)
	require.NoError(t, err)
	require.NotNil(t, n.Deadline)
	assert.WithinDuration(t, deadline, *n.Deadline, time.Second)
}

func TestManager_StartOnlyPending(t *testing.T) {
	m := newTestManager()
	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, m.Start(n.ID))

	err = m.Start(n.ID)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))

	err = m.Start("missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestManager_UnanimousAcceptSucceeds(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob", "carol")

	content := &types.ProposalContent{
		Assignments: map[string][]string{"bob": {"t1"}, "carol": {"t2"}},
	}
	p, err := m.SubmitProposal(n.ID, "alice", content)
	require.NoError(t, err)

	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "bob", types.ResponseAccept))

	// Nothing resolves until the last required responder answers.
	mid, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationActive, mid.Status)

	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "carol", types.ResponseAccept))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationSuccessful, got.Status)
	assert.Equal(t, types.ProposalAccepted, got.Proposals[0].Status)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, content.Assignments, got.Outcome.Assignments)
	assert.NotNil(t, got.CompletedAt)
}

func TestManager_RejectionKillsProposal(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob", "carol")

	p, err := m.SubmitProposal(n.ID, "alice", &types.ProposalContent{Notes: "plan a"})
	require.NoError(t, err)

	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "bob", types.ResponseAccept))
	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "carol", types.ResponseReject))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalRejected, got.Proposals[0].Status)
	// The only proposal is dead, so the whole negotiation failed.
	assert.Equal(t, types.NegotiationFailed, got.Status)
	assert.Nil(t, got.Outcome)
}

func TestManager_RejectionSparesLiveProposals(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob")

	doomed, err := m.SubmitProposal(n.ID, "alice", &types.ProposalContent{Notes: "plan a"})
	require.NoError(t, err)
	_, err = m.SubmitProposal(n.ID, "bob", &types.ProposalContent{Notes: "plan b"})
	require.NoError(t, err)

	require.NoError(t, m.RespondToProposal(n.ID, doomed.ID, "bob", types.ResponseReject))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalRejected, got.Proposals[0].Status)
	assert.Equal(t, types.NegotiationActive, got.Status)
}

func TestManager_CounterLeavesNegotiationOpen(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob", "carol")

	p, err := m.SubmitProposal(n.ID, "alice", &types.ProposalContent{Notes: "plan a"})
	require.NoError(t, err)

	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "bob", types.ResponseAccept))
	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "carol", types.ResponseCounter))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalCountered, got.Proposals[0].Status)
	assert.Equal(t, types.NegotiationActive, got.Status)
}

func TestManager_ResponseValidation(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob", "carol")

	p, err := m.SubmitProposal(n.ID, "bob", &types.ProposalContent{Notes: "plan b"})
	require.NoError(t, err)

	// The proposer is not a required responder for its own proposal.
	err = m.RespondToProposal(n.ID, p.ID, "bob", types.ResponseAccept)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotAParticipant, types.GetErrorCode(err))

	// Outsiders cannot respond.
	err = m.RespondToProposal(n.ID, p.ID, "mallory", types.ResponseAccept)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotAParticipant, types.GetErrorCode(err))

	// Unknown response values are refused.
	err = m.RespondToProposal(n.ID, p.ID, "alice", types.Response("maybe"))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidResponse, types.GetErrorCode(err))

	// One answer per responder.
	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "alice", types.ResponseAccept))
	err = m.RespondToProposal(n.ID, p.ID, "alice", types.ResponseReject)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))

	// The initiator counts as a required responder: carol completes the set.
	require.NoError(t, m.RespondToProposal(n.ID, p.ID, "carol", types.ResponseAccept))
	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationSuccessful, got.Status)
}

func TestManager_SubmitProposalValidation(t *testing.T) {
	m := newTestManager()
	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, nil)
	require.NoError(t, err)

	// Proposals need an active negotiation.
	_, err = m.SubmitProposal(n.ID, "alice", &types.ProposalContent{})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))

	require.NoError(t, m.Start(n.ID))

	_, err = m.SubmitProposal(n.ID, "alice", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrEmptyInput, types.GetErrorCode(err))

	_, err = m.SubmitProposal(n.ID, "mallory", &types.ProposalContent{})
	require.Error(t, err)
	assert.Equal(t, types.ErrNotAParticipant, types.GetErrorCode(err))

	_, err = m.SubmitProposal("missing", "alice", &types.ProposalContent{})
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestManager_WithdrawProposal(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob")

	p, err := m.SubmitProposal(n.ID, "alice", &types.ProposalContent{Notes: "plan a"})
	require.NoError(t, err)

	// Only the proposer may withdraw.
	err = m.WithdrawProposal(n.ID, p.ID, "bob")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotAParticipant, types.GetErrorCode(err))

	require.NoError(t, m.WithdrawProposal(n.ID, p.ID, "alice"))

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalWithdrawn, got.Proposals[0].Status)
	// Withdrawing the only proposal fails the negotiation.
	assert.Equal(t, types.NegotiationFailed, got.Status)

	err = m.WithdrawProposal(n.ID, p.ID, "alice")
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))
}

func TestManager_Cancel(t *testing.T) {
	m := newTestManager()

	pending, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Cancel(pending.ID))

	got, err := m.Get(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationCancelled, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// Terminal states refuse further transitions.
	err = m.Cancel(pending.ID)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))

	active := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob")
	require.NoError(t, m.Cancel(active.ID))
}

func TestManager_CheckTimeout(t *testing.T) {
	m := newTestManager()
	past := time.Now().Add(-time.Minute)

	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, &past)
	require.NoError(t, err)

	// Deadlines only bite active negotiations.
	timedOut, err := m.CheckTimeout(n.ID)
	require.NoError(t, err)
	assert.False(t, timedOut)

	require.NoError(t, m.Start(n.ID))

	timedOut, err = m.CheckTimeout(n.ID)
	require.NoError(t, err)
	assert.True(t, timedOut)

	// Polling again is idempotent.
	timedOut, err = m.CheckTimeout(n.ID)
	require.NoError(t, err)
	assert.True(t, timedOut)

	// The expired negotiation accepts nothing further.
	_, err = m.SubmitProposal(n.ID, "alice", &types.ProposalContent{})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))
}

func TestManager_LazyTimeoutOnSubmit(t *testing.T) {
	m := newTestManager()
	past := time.Now().Add(-time.Minute)

	n, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, &past)
	require.NoError(t, err)
	require.NoError(t, m.Start(n.ID))

	_, err = m.SubmitProposal(n.ID, "alice", &types.ProposalContent{})
	require.Error(t, err)

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationTimeout, got.Status)
}

func TestManager_List(t *testing.T) {
	m := newTestManager()

	first, err := m.Create(types.NegotiationTaskAllocation, "alice", []string{"bob"}, nil, nil)
	require.NoError(t, err)
	second, err := m.Create(types.NegotiationPrioritySetting, "bob", []string{"alice"}, nil, nil)
	require.NoError(t, err)

	all := m.List()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func TestManager_GetReturnsDetachedCopy(t *testing.T) {
	m := newTestManager()
	n := startNegotiation(t, m, types.NegotiationTaskAllocation, "alice", "bob")

	got, err := m.Get(n.ID)
	require.NoError(t, err)
	got.Status = types.NegotiationFailed
	got.Participants[0] = "mallory"

	again, err := m.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationActive, again.Status)
	assert.Equal(t, []string{"bob"}, again.Participants)
}

func TestProperty_ProposalResolution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numParticipants := rapid.IntRange(1, 5).Draw(rt, "numParticipants")
		participants := make([]string, numParticipants)
		for i := range participants {
			participants[i] = fmt.Sprintf("agent-%d", i)
		}

		m := newTestManager()
		n, err := m.Create(types.NegotiationTaskAllocation, "initiator", participants, nil, nil)
		if err != nil {
			rt.Fatalf("Create failed: %v", err)
		}
		if err := m.Start(n.ID); err != nil {
			rt.Fatalf("Start failed: %v", err)
		}
		p, err := m.SubmitProposal(n.ID, "initiator", &types.ProposalContent{Notes: "plan"})
		if err != nil {
			rt.Fatalf("SubmitProposal failed: %v", err)
		}

		anyReject, anyCounter := false, false
		for _, responder := range participants {
			resp := rapid.SampledFrom([]types.Response{
				types.ResponseAccept, types.ResponseReject, types.ResponseCounter,
			}).Draw(rt, "response_"+responder)
			switch resp {
			case types.ResponseReject:
				anyReject = true
			case types.ResponseCounter:
				anyCounter = true
			}
			if err := m.RespondToProposal(n.ID, p.ID, responder, resp); err != nil {
				rt.Fatalf("RespondToProposal failed: %v", err)
			}
		}

		got, err := m.Get(n.ID)
		if err != nil {
			rt.Fatalf("Get failed: %v", err)
		}
		resolved := got.Proposals[0]

		switch {
		case anyReject:
			if resolved.Status != types.ProposalRejected {
				rt.Fatalf("expected rejected, got %s", resolved.Status)
			}
			if got.Status != types.NegotiationFailed {
				rt.Fatalf("sole dead proposal should fail the negotiation, got %s", got.Status)
			}
		case anyCounter:
			if resolved.Status != types.ProposalCountered {
				rt.Fatalf("expected countered, got %s", resolved.Status)
			}
			if got.Status != types.NegotiationActive {
				rt.Fatalf("countered proposal should keep the negotiation active, got %s", got.Status)
			}
		default:
			if resolved.Status != types.ProposalAccepted {
				rt.Fatalf("expected accepted, got %s", resolved.Status)
			}
			if got.Status != types.NegotiationSuccessful {
				rt.Fatalf("unanimous accept should succeed the negotiation, got %s", got.Status)
			}
			if got.Outcome == nil {
				rt.Fatalf("successful negotiation must carry an outcome")
			}
		}
	})
}
