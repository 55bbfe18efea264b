package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/formation"
	"github.com/BaSui01/teamflow/internal/metrics"
	"github.com/BaSui01/teamflow/types"
)

const instrumentationName = "teamflow/service"

// TeamFormationService is the public facade over the team formation
// manager. A nil collector disables metric emission.
type TeamFormationService struct {
	manager   *formation.Manager
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewTeamFormationService creates the facade.
func NewTeamFormationService(manager *formation.Manager, collector *metrics.Collector, logger *zap.Logger) *TeamFormationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamFormationService{
		manager:   manager,
		collector: collector,
		tracer:    otel.Tracer(instrumentationName),
		logger:    logger.With(zap.String("component", "team_formation_service")),
	}
}

// RegisterStrategy adds or replaces a formation strategy under its own
// name.
func (s *TeamFormationService) RegisterStrategy(strategy formation.Strategy) {
	s.manager.RegisterStrategy(strategy)
}

// FormTeam forms and tracks a team for the task under the named strategy.
func (s *TeamFormationService) FormTeam(ctx context.Context, task *types.TaskRequirement, strategyName string) (*types.Team, error) {
	ctx, span := s.tracer.Start(ctx, "formation.form_team",
		trace.WithAttributes(attribute.String("strategy", strategyName)))
	defer span.End()

	start := time.Now()
	team, err := s.manager.CreateTeam(ctx, task, strategyName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("team.id", team.ID),
		attribute.Int("team.size", team.Size()),
	)
	if s.collector != nil {
		s.collector.RecordTeamFormed(team.Strategy, team.Size(), time.Since(start))
	}
	return team, nil
}

// GetTeam returns a copy of a tracked team.
func (s *TeamFormationService) GetTeam(ctx context.Context, teamID string) (*types.Team, error) {
	_, span := s.tracer.Start(ctx, "formation.get_team",
		trace.WithAttributes(attribute.String("team.id", teamID)))
	defer span.End()

	team, err := s.manager.GetTeam(teamID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return team, nil
}

// GetTeamsForTask returns all teams formed for a task.
func (s *TeamFormationService) GetTeamsForTask(ctx context.Context, taskID string) []*types.Team {
	_, span := s.tracer.Start(ctx, "formation.teams_for_task",
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	return s.manager.GetTeamsForTask(taskID)
}

// DisbandTeam disbands a team and releases its members' load.
func (s *TeamFormationService) DisbandTeam(ctx context.Context, teamID string) error {
	_, span := s.tracer.Start(ctx, "formation.disband_team",
		trace.WithAttributes(attribute.String("team.id", teamID)))
	defer span.End()

	if err := s.manager.DisbandTeam(teamID); err != nil {
		span.RecordError(err)
		return err
	}
	if s.collector != nil {
		s.collector.RecordTeamDisbanded()
	}
	return nil
}

// UpdateTeamPerformance folds observed outcome metrics into a team's score.
func (s *TeamFormationService) UpdateTeamPerformance(ctx context.Context, teamID string, update formation.PerformanceUpdate) (*types.TeamPerformance, error) {
	_, span := s.tracer.Start(ctx, "formation.update_performance",
		trace.WithAttributes(attribute.String("team.id", teamID)))
	defer span.End()

	perf, err := s.manager.UpdateTeamPerformance(teamID, update)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Float64("team.overall_score", perf.OverallScore))
	return perf, nil
}

// AdjustTeamComposition repairs an underperforming team's capability gaps.
// Returns whether the composition changed.
func (s *TeamFormationService) AdjustTeamComposition(ctx context.Context, teamID string) (bool, error) {
	_, span := s.tracer.Start(ctx, "formation.adjust_composition",
		trace.WithAttributes(attribute.String("team.id", teamID)))
	defer span.End()

	changed, err := s.manager.AdjustTeamComposition(teamID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("team.changed", changed))
	if changed && s.collector != nil {
		s.collector.RecordTeamAdjusted()
	}
	return changed, nil
}

// GetTeamRecommendations previews candidate teams under several strategies,
// best predicted performance first.
func (s *TeamFormationService) GetTeamRecommendations(ctx context.Context, task *types.TaskRequirement, count int) ([]*types.Team, error) {
	ctx, span := s.tracer.Start(ctx, "formation.recommendations",
		trace.WithAttributes(attribute.Int("count", count)))
	defer span.End()

	teams, err := s.manager.GetTeamRecommendations(ctx, task, count)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("teams", len(teams)))
	return teams, nil
}
