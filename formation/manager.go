package formation

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/registry"
	"github.com/BaSui01/teamflow/types"
)

// defaultLoadDelta is the per-member load added for a task without a
// complexity rating.
const defaultLoadDelta = 0.1

// adjustmentThreshold is the performance score at or above which
// AdjustTeamComposition leaves a team untouched.
const adjustmentThreshold = 0.7

// PerformanceUpdate carries observed team outcome metrics, each in [0,1].
type PerformanceUpdate struct {
	CompletionRate float64 `json:"completion_rate"`
	Quality        float64 `json:"quality"`
	Efficiency     float64 `json:"efficiency"`
	Collaboration  float64 `json:"collaboration"`
}

// Score folds the update into the weighted overall score.
func (u PerformanceUpdate) Score() float64 {
	return 0.4*types.Clamp01(u.CompletionRate) +
		0.3*types.Clamp01(u.Quality) +
		0.2*types.Clamp01(u.Efficiency) +
		0.1*types.Clamp01(u.Collaboration)
}

// teamEntry serializes mutation per team id.
type teamEntry struct {
	mu   sync.Mutex
	team *types.Team
}

// Manager orchestrates team formation: it picks a strategy, queries the
// capability registry for candidates, builds the team, applies member
// load, and tracks the team lifecycle afterwards.
type Manager struct {
	mu         sync.RWMutex
	teams      map[string]*teamEntry
	byTask     map[string][]string
	strategies map[string]Strategy
	stratOrder []string

	capabilities *registry.CapabilityRegistry
	roles        *registry.RoleRegistry
	cfg          config.FormationConfig
	logger       *zap.Logger
}

// NewManager creates a manager with all built-in strategies registered.
func NewManager(caps *registry.CapabilityRegistry, roles *registry.RoleRegistry, cfg config.FormationConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		teams:        make(map[string]*teamEntry),
		byTask:       make(map[string][]string),
		strategies:   make(map[string]Strategy),
		capabilities: caps,
		roles:        roles,
		cfg:          cfg,
		logger:       logger.With(zap.String("component", "team_formation_manager")),
	}

	threshold := cfg.CapabilityMatchThreshold
	for _, s := range []Strategy{
		NewOptimalCoverage(logger),
		NewBalancedWorkload(logger),
		NewCapabilityBased(threshold, logger),
		NewPerformanceBased(threshold, logger),
		NewSpecializationBased(threshold, logger),
		NewCostOptimized(threshold, logger),
		NewBalanced(threshold, cfg.Weights, logger),
		NewHybrid(threshold, cfg.Weights, logger),
	} {
		m.RegisterStrategy(s)
	}
	return m
}

// RegisterStrategy adds or replaces a strategy under its own name.
func (m *Manager) RegisterStrategy(s Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.strategies[s.Name()]; !exists {
		m.stratOrder = append(m.stratOrder, s.Name())
	}
	m.strategies[s.Name()] = s
}

// strategy resolves a strategy name, substituting the configured default
// for unknown names with a warning.
func (m *Manager) strategy(name string) Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.strategies[name]; ok {
		return s
	}
	m.logger.Warn("unknown formation strategy, substituting default",
		zap.String("code", string(types.ErrUnknownStrategy)),
		zap.String("requested", name),
		zap.String("default", m.cfg.DefaultStrategy),
	)
	if s, ok := m.strategies[m.cfg.DefaultStrategy]; ok {
		return s
	}
	return m.strategies[StrategyOptimalCoverage]
}

// snapshot builds the strategy input from the current registry state.
func (m *Manager) snapshot(task *types.TaskRequirement) Input {
	return Input{
		Task:   task,
		Agents: m.capabilities.FindAvailableAgents(registry.AgentFilter{MaxLoad: 1.0}),
		Roles:  m.roles.Resolve(task.RequiredRoles),
	}
}

// CreateTeam forms a team for the task under the named strategy, applies
// member load and starts tracking the team.
func (m *Manager) CreateTeam(ctx context.Context, task *types.TaskRequirement, strategyName string) (*types.Team, error) {
	if task == nil || task.ID == "" {
		return nil, types.NewError(types.ErrEmptyInput, "task is nil or has no id")
	}

	s := m.strategy(strategyName)
	team, err := s.FormTeam(m.snapshot(task))
	if err != nil {
		return nil, err
	}

	team.LoadDelta = loadDelta(task)
	for _, member := range team.Members {
		if err := m.capabilities.AddAgentLoad(member.AgentID, team.LoadDelta); err != nil {
			m.logger.Warn("load update failed", zap.String("agent_id", member.AgentID), zap.Error(err))
		}
	}
	team.Status = types.TeamStatusActive

	m.mu.Lock()
	m.teams[team.ID] = &teamEntry{team: team}
	m.byTask[task.ID] = append(m.byTask[task.ID], team.ID)
	m.mu.Unlock()

	m.logger.Info("team created",
		zap.String("team_id", team.ID),
		zap.String("task_id", task.ID),
		zap.String("strategy", s.Name()),
		zap.Int("members", team.Size()),
		zap.Float64("capability_coverage", team.Performance.CapabilityCoverage),
	)
	return team.Clone(), nil
}

// loadDelta derives the per-member load increment from task complexity.
func loadDelta(task *types.TaskRequirement) float64 {
	if task.Complexity <= 0 {
		return defaultLoadDelta
	}
	return types.Clamp01(float64(task.Complexity) / 10)
}

// entry fetches the lock entry for a team id.
func (m *Manager) entry(teamID string) (*teamEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.teams[teamID]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "team %s not found", teamID)
	}
	return e, nil
}

// GetTeam returns a copy of a tracked team.
func (m *Manager) GetTeam(teamID string) (*types.Team, error) {
	e, err := m.entry(teamID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.team.Clone(), nil
}

// GetTeamsForTask returns copies of all teams formed for a task, in
// creation order.
func (m *Manager) GetTeamsForTask(taskID string) []*types.Team {
	m.mu.RLock()
	ids := append([]string(nil), m.byTask[taskID]...)
	m.mu.RUnlock()

	teams := make([]*types.Team, 0, len(ids))
	for _, id := range ids {
		if t, err := m.GetTeam(id); err == nil {
			teams = append(teams, t)
		}
	}
	return teams
}

// DisbandTeam releases the members' load and marks the team disbanded.
// Disbanding is terminal: the team never changes again.
func (m *Manager) DisbandTeam(teamID string) error {
	e, err := m.entry(teamID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.team.Status == types.TeamStatusDisbanded {
		return types.NewError(types.ErrInvalidTransition, "team %s already disbanded", teamID)
	}
	for _, member := range e.team.Members {
		if err := m.capabilities.AddAgentLoad(member.AgentID, -e.team.LoadDelta); err != nil {
			m.logger.Warn("load release failed", zap.String("agent_id", member.AgentID), zap.Error(err))
		}
	}
	e.team.Status = types.TeamStatusDisbanded

	m.logger.Info("team disbanded", zap.String("team_id", teamID))
	return nil
}

// UpdateTeamPerformance folds observed outcome metrics into the team's
// overall score and feeds the collaboration signal back into each member's
// reputation.
func (m *Manager) UpdateTeamPerformance(teamID string, update PerformanceUpdate) (*types.TeamPerformance, error) {
	e, err := m.entry(teamID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.team.Status == types.TeamStatusDisbanded {
		return nil, types.NewError(types.ErrInvalidTransition, "team %s is disbanded", teamID)
	}

	e.team.Performance.OverallScore = update.Score()
	for _, member := range e.team.Members {
		if err := m.capabilities.RecordCollaboration(member.AgentID, update.Collaboration); err != nil {
			m.logger.Warn("collaboration feedback failed", zap.String("agent_id", member.AgentID), zap.Error(err))
		}
	}

	perf := e.team.Performance
	m.logger.Info("team performance updated",
		zap.String("team_id", teamID),
		zap.Float64("overall_score", perf.OverallScore),
	)
	return &perf, nil
}

// AdjustTeamComposition repairs an underperforming team: when the overall
// score is below the adjustment threshold it re-evaluates capability gaps
// against the team's original task requirement and adds the best unused
// candidate per gap, up to the maximum team size. Returns whether the
// composition changed.
func (m *Manager) AdjustTeamComposition(teamID string) (bool, error) {
	e, err := m.entry(teamID)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	team := e.team
	if team.Status == types.TeamStatusDisbanded {
		return false, types.NewError(types.ErrInvalidTransition, "team %s is disbanded", teamID)
	}
	if team.Performance.OverallScore >= adjustmentThreshold {
		return false, nil
	}
	task := team.Task
	if task == nil {
		return false, types.NewError(types.ErrEmptyInput, "team %s has no task requirement", teamID)
	}

	members := make(map[string]bool, team.Size())
	for _, member := range team.Members {
		members[member.AgentID] = true
	}

	changed := false
	for _, cap := range m.coverageGaps(team, task) {
		if task.MaxTeamSize > 0 && team.Size() >= task.MaxTeamSize {
			break
		}
		best := m.bestCandidate(cap, task.RequiredCapabilities[cap], members)
		if best == nil {
			m.logger.Warn("no candidate to fill capability gap",
				zap.String("team_id", teamID),
				zap.String("capability", cap),
			)
			continue
		}
		members[best.ID] = true
		team.Members = append(team.Members, &types.TeamMember{
			AgentID:      best.ID,
			Capabilities: coveredRequiredCaps(best, task),
		})
		if err := m.capabilities.AddAgentLoad(best.ID, team.LoadDelta); err != nil {
			m.logger.Warn("load update failed", zap.String("agent_id", best.ID), zap.Error(err))
		}
		changed = true
	}

	if changed {
		m.recomputeCoverage(team, task)
		m.logger.Info("team composition adjusted",
			zap.String("team_id", teamID),
			zap.Int("members", team.Size()),
		)
	}
	return changed, nil
}

// coverageGaps lists required capabilities no current member meets at the
// minimum proficiency, evaluated against live registry profiles.
func (m *Manager) coverageGaps(team *types.Team, task *types.TaskRequirement) []string {
	var gaps []string
	for _, cap := range task.RequiredCapabilityNames() {
		min := task.RequiredCapabilities[cap]
		covered := false
		for _, member := range team.Members {
			profile, err := m.capabilities.GetAgent(member.AgentID)
			if err != nil {
				continue
			}
			if profile.Proficiency(cap) >= min {
				covered = true
				break
			}
		}
		if !covered {
			gaps = append(gaps, cap)
		}
	}
	return gaps
}

// bestCandidate returns the strongest unused agent for the capability that
// meets the minimum proficiency, nil when none qualifies.
func (m *Manager) bestCandidate(capability string, min float64, used map[string]bool) *types.AgentProfile {
	candidates := m.capabilities.AgentsWithCapability(capability)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Proficiency(capability) > candidates[j].Proficiency(capability)
	})
	for _, c := range candidates {
		if used[c.ID] {
			continue
		}
		if c.Proficiency(capability) < min {
			continue
		}
		return c
	}
	return nil
}

// recomputeCoverage refreshes the team's capability coverage from live
// registry profiles. Caller holds the entry lock.
func (m *Manager) recomputeCoverage(team *types.Team, task *types.TaskRequirement) {
	required := task.RequiredCapabilityNames()
	if len(required) == 0 {
		team.Performance.CapabilityCoverage = 1.0
		return
	}
	gaps := m.coverageGaps(team, task)
	team.Performance.CapabilityCoverage = float64(len(required)-len(gaps)) / float64(len(required))
}

// GetTeamRecommendations forms candidate teams under several strategies
// concurrently and returns them ordered by predicted performance
// descending. Recommendations are previews: they are not tracked and do
// not change agent load.
func (m *Manager) GetTeamRecommendations(ctx context.Context, task *types.TaskRequirement, count int) ([]*types.Team, error) {
	if task == nil || task.ID == "" {
		return nil, types.NewError(types.ErrEmptyInput, "task is nil or has no id")
	}

	names := m.cfg.RecommendationStrategies
	if len(names) == 0 {
		m.mu.RLock()
		names = append([]string(nil), m.stratOrder...)
		m.mu.RUnlock()
	}
	in := m.snapshot(task)

	results := make([]*types.Team, len(names))
	g, _ := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			team, err := m.strategy(name).FormTeam(in)
			if err != nil {
				// An empty pool fails every strategy the same way; surface it.
				return err
			}
			results[i] = team
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teams := make([]*types.Team, 0, len(results))
	for _, t := range results {
		if t != nil && t.Size() > 0 {
			teams = append(teams, t)
		}
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Performance.OverallScore > teams[j].Performance.OverallScore
	})
	if count > 0 && len(teams) > count {
		teams = teams[:count]
	}
	return teams, nil
}
