package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

func task(id string, priority int, duration float64) *types.TaskRequirement {
	return &types.TaskRequirement{ID: id, Priority: priority, EstimatedDuration: duration}
}

func agent(id string) *types.AgentProfile {
	return &types.AgentProfile{ID: id}
}

func TestRoundRobin_PriorityOrderAndRotation(t *testing.T) {
	s := &RoundRobin{}
	tasks := []*types.TaskRequirement{
		task("low", 1, 0),
		task("high", 9, 0),
		task("mid", 5, 0),
	}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}

	got := s.Allocate(tasks, agents, nil, nil)

	// Sorted by priority desc: high, mid, low → a1, a2, a1.
	assert.Equal(t, []string{"high", "low"}, got["a1"])
	assert.Equal(t, []string{"mid"}, got["a2"])
}

func TestRoundRobin_EqualPrioritiesKeepInsertionOrder(t *testing.T) {
	s := &RoundRobin{}
	tasks := []*types.TaskRequirement{task("t1", 5, 0), task("t2", 5, 0), task("t3", 5, 0)}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}

	got := s.Allocate(tasks, agents, nil, nil)
	assert.Equal(t, []string{"t1", "t3"}, got["a1"])
	assert.Equal(t, []string{"t2"}, got["a2"])
}

func TestRoundRobin_EmptyInputs(t *testing.T) {
	s := &RoundRobin{}
	assert.Empty(t, s.Allocate(nil, []*types.AgentProfile{agent("a1")}, nil, nil))
	assert.Empty(t, s.Allocate([]*types.TaskRequirement{task("t1", 1, 0)}, nil, nil, nil))
}

func TestWorkloadBalancing_GreedyMinWorkload(t *testing.T) {
	s := &WorkloadBalancing{}
	tasks := []*types.TaskRequirement{
		task("short", 1, 1),
		task("long", 1, 10),
		task("mid", 1, 5),
	}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}

	got := s.Allocate(tasks, agents, nil, map[string]float64{})

	// Longest first: long→a1 (0), mid→a2 (0), short→a2 (5 < 10).
	assert.Equal(t, []string{"long"}, got["a1"])
	assert.Equal(t, []string{"mid", "short"}, got["a2"])
}

func TestWorkloadBalancing_RespectsExistingWorkloads(t *testing.T) {
	s := &WorkloadBalancing{}
	tasks := []*types.TaskRequirement{task("t1", 1, 2)}
	agents := []*types.AgentProfile{agent("busy"), agent("free")}
	workloads := map[string]float64{"busy": 8, "free": 1}

	got := s.Allocate(tasks, agents, nil, workloads)
	assert.Equal(t, []string{"t1"}, got["free"])
	// The caller's map must stay untouched.
	assert.Equal(t, 1.0, workloads["free"])
}

func TestCapabilityMatching_WeightedScoring(t *testing.T) {
	s := &CapabilityMatching{}
	tasks := []*types.TaskRequirement{{
		ID:                   "t1",
		RequiredCapabilities: map[string]float64{"coding": 1.0, "testing": 0.5},
	}}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}
	caps := map[string]map[string]float64{
		"a1": {"coding": 0.9, "testing": 0.2}, // 0.9 + 0.1 = 1.0
		"a2": {"coding": 0.5, "testing": 0.9}, // 0.5 + 0.45 = 0.95
	}

	got := s.Allocate(tasks, agents, caps, map[string]float64{})
	assert.Equal(t, []string{"t1"}, got["a1"])
}

func TestCapabilityMatching_WorkloadPenalty(t *testing.T) {
	s := &CapabilityMatching{}
	tasks := []*types.TaskRequirement{{
		ID:                   "t1",
		RequiredCapabilities: map[string]float64{"coding": 1.0},
	}}
	agents := []*types.AgentProfile{agent("strong"), agent("weak")}
	caps := map[string]map[string]float64{
		"strong": {"coding": 0.9},
		"weak":   {"coding": 0.8},
	}
	// Heavy workload caps the penalty at 0.9: strong scores 0.9×0.1=0.09,
	// weak scores 0.8×1.0=0.8.
	workloads := map[string]float64{"strong": 50}

	got := s.Allocate(tasks, agents, caps, workloads)
	assert.Equal(t, []string{"t1"}, got["weak"])
}

func TestCapabilityMatching_MeanFallbackWithoutTaskWeights(t *testing.T) {
	s := &CapabilityMatching{}
	tasks := []*types.TaskRequirement{{ID: "t1"}}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}
	caps := map[string]map[string]float64{
		"a1": {"x": 0.2, "y": 0.4}, // mean 0.3
		"a2": {"x": 0.8},           // mean 0.8
	}

	got := s.Allocate(tasks, agents, caps, map[string]float64{})
	assert.Equal(t, []string{"t1"}, got["a2"])
}

func TestCapabilityMatching_NoTableFallsBackToRoundRobin(t *testing.T) {
	s := &CapabilityMatching{}
	tasks := []*types.TaskRequirement{task("t1", 2, 0), task("t2", 1, 0)}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}

	got := s.Allocate(tasks, agents, nil, nil)
	assert.Equal(t, []string{"t1"}, got["a1"])
	assert.Equal(t, []string{"t2"}, got["a2"])
}

func TestCapabilityMatching_AllZeroScoresFallsBackToLeastLoaded(t *testing.T) {
	s := &CapabilityMatching{}
	tasks := []*types.TaskRequirement{{
		ID:                   "t1",
		RequiredCapabilities: map[string]float64{"piloting": 1.0},
	}}
	agents := []*types.AgentProfile{agent("a1"), agent("a2")}
	caps := map[string]map[string]float64{
		"a1": {"coding": 0.9},
		"a2": {"coding": 0.9},
	}
	workloads := map[string]float64{"a1": 3, "a2": 1}

	got := s.Allocate(tasks, agents, caps, workloads)
	assert.Equal(t, []string{"t1"}, got["a2"])
}

func TestRegistry_UnknownStrategySubstitutesDefault(t *testing.T) {
	reg := NewRegistry(StrategyWorkloadBalancing, zap.NewNop())

	s := reg.Get("no_such_strategy")
	require.NotNil(t, s)
	assert.Equal(t, StrategyWorkloadBalancing, s.Name())

	s = reg.Get(StrategyCapabilityMatching)
	assert.Equal(t, StrategyCapabilityMatching, s.Name())
}

func TestRegistry_CustomStrategy(t *testing.T) {
	reg := NewRegistry(StrategyRoundRobin, zap.NewNop())
	reg.Register(&RoundRobin{}) // re-register is a replace, not an error
	assert.Equal(t, StrategyRoundRobin, reg.Get(StrategyRoundRobin).Name())
}
