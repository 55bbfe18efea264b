package teamflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/testutil/fixtures"
	"github.com/BaSui01/teamflow/types"
)

func TestNew_DefaultWiring(t *testing.T) {
	engine, err := New(WithoutMetrics())
	require.NoError(t, err)
	defer engine.Close()

	assert.NotNil(t, engine.Capabilities)
	assert.NotNil(t, engine.Roles)
	assert.NotNil(t, engine.Formation)
	assert.NotNil(t, engine.Negotiation)
	assert.Equal(t, "optimal_coverage", engine.Config().Formation.DefaultStrategy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Formation.DefaultStrategy = ""

	_, err := New(WithConfig(cfg), WithoutMetrics())
	require.Error(t, err)
}

func TestEngine_EndToEnd(t *testing.T) {
	engine, err := New(WithoutMetrics())
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	for _, a := range fixtures.ReviewPool() {
		require.NoError(t, engine.Capabilities.RegisterAgent(a))
	}

	team, err := engine.Formation.FormTeam(ctx, fixtures.ReviewTask(), "optimal_coverage")
	require.NoError(t, err)
	require.Equal(t, []string{"agent-a", "agent-b"}, team.MemberIDs())

	n, err := engine.Negotiation.InitiateNegotiation(ctx, types.NegotiationTaskAllocation,
		"agent-a", []string{"agent-b"}, nil, nil)
	require.NoError(t, err)

	p, err := engine.Negotiation.SubmitProposal(ctx, n.ID, "agent-a", &types.ProposalContent{
		Assignments: map[string][]string{"agent-b": {"task-review"}},
	})
	require.NoError(t, err)
	require.NoError(t, engine.Negotiation.RespondToProposal(ctx, n.ID, p.ID, "agent-b", types.ResponseAccept))

	status, err := engine.Negotiation.GetNegotiationStatus(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NegotiationSuccessful, status.Status)

	require.NoError(t, engine.Formation.DisbandTeam(ctx, team.ID))
}
