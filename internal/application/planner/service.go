// Package planner provides the application layer for the form, loading and
// results flow. It implements inbound.PlannerService.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alchemorsel/cardapio/internal/application/ai"
	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

// Messages shown on the form after a failed attempt
const (
	MealPlanFailureMessage = "Erro ao gerar cardápio com IA. Tente novamente."
	FitnessFailureMessage  = "Erro ao gerar recomendações de exercícios com IA. Tente novamente."
	GenericFailureMessage  = "Erro ao gerar recomendações. Tente novamente."
)

var tracer = otel.Tracer("github.com/alchemorsel/cardapio/internal/application/planner")

// MealPlanGenerator produces a week of recipes
type MealPlanGenerator interface {
	Generate(ctx context.Context, req ai.MealPlanRequest) ([]mealplan.Recipe, error)
}

// FitnessGenerator produces exercise and hydration advice
type FitnessGenerator interface {
	Generate(ctx context.Context, req ai.FitnessRequest) (*mealplan.FitnessPlan, error)
}

// Recorder receives planner metrics
type Recorder interface {
	PlanGeneration(status string, duration time.Duration)
	ReportRendered(status string)
}

// Service implements the planner use cases
type Service struct {
	meals    MealPlanGenerator
	fitness  FitnessGenerator
	sessions outbound.SessionRepository
	renderer outbound.ReportRenderer
	metrics  Recorder
	logger   *zap.Logger
	now      func() time.Time

	// loadingTimeout bounds how long a session may stay on the loading
	// step. Past it the generation is presumed lost and the session
	// returns to the form.
	loadingTimeout time.Duration

	// mu serialises load-modify-save on sessions
	mu       sync.Mutex
	inflight sync.WaitGroup
}

var _ inbound.PlannerService = (*Service)(nil)

// NewService creates a new planner service. A zero loadingTimeout never
// expires a loading session.
func NewService(
	meals MealPlanGenerator,
	fitness FitnessGenerator,
	sessions outbound.SessionRepository,
	renderer outbound.ReportRenderer,
	metrics Recorder,
	loadingTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		meals:          meals,
		fitness:        fitness,
		sessions:       sessions,
		renderer:       renderer,
		metrics:        metrics,
		logger:         logger.Named("planner-service"),
		now:            time.Now,
		loadingTimeout: loadingTimeout,
	}
}

// Calculate validates the profile and computes its daily targets
func (s *Service) Calculate(profile nutrition.UserProfile) (nutrition.Targets, error) {
	if err := profile.Validate(); err != nil {
		return nutrition.Targets{}, apperrors.FromValidator(err)
	}
	targets := nutrition.CalculateNutritionalNeeds(profile)
	if targets.MacroOverflow() {
		s.logger.Warn("Protein and fat exceed the calorie target; carbs are negative",
			zap.Float64("target_calories", targets.TargetCalories),
			zap.Float64("carbs", targets.Carbs),
		)
	}
	return targets, nil
}

// Submit validates the profile, moves the session to loading and starts
// generation in the background. The returned session is a snapshot.
func (s *Service) Submit(ctx context.Context, sessionID string, profile nutrition.UserProfile) (*planning.Session, error) {
	targets, err := s.Calculate(profile)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	attempt, err := sess.Begin(profile, targets)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, planning.ErrGenerationInProgress) {
			return nil, apperrors.NewGenerationInProgressError(sessionID)
		}
		return nil, apperrors.Wrap(err, "failed to start generation")
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.mu.Unlock()
		return nil, apperrors.Wrap(err, "failed to save session")
	}
	snapshot := *sess
	s.mu.Unlock()

	s.logger.Info("Plan generation started",
		zap.String("session_id", sessionID),
		zap.Int("attempt", attempt),
		zap.String("goal", string(profile.Goal)),
	)

	s.inflight.Add(1)
	go s.run(context.WithoutCancel(ctx), sessionID, attempt, profile, targets)

	return &snapshot, nil
}

func (s *Service) run(ctx context.Context, sessionID string, attempt int, profile nutrition.UserProfile, targets nutrition.Targets) {
	defer s.inflight.Done()

	result, genErr := s.generate(ctx, profile, targets)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to load session after generation",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if sess == nil {
		s.logger.Info("Session expired before generation finished", zap.String("session_id", sessionID))
		return
	}

	if genErr != nil {
		err = sess.Fail(attempt, FailureMessage(genErr))
	} else {
		err = sess.Complete(attempt, result.Recipes, result.Fitness)
	}
	if errors.Is(err, planning.ErrStaleAttempt) {
		s.logger.Info("Discarding superseded generation",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt),
			zap.Int("current_attempt", sess.Attempt),
		)
		return
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error("Failed to save session after generation",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Generate runs both requesters and returns the complete plan
func (s *Service) Generate(ctx context.Context, profile nutrition.UserProfile) (*planning.Result, error) {
	targets, err := s.Calculate(profile)
	if err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, profile, targets)
	if err != nil {
		return nil, apperrors.NewGenerationFailedError(FailureMessage(err), err)
	}
	return result, nil
}

// generate waits for both requesters. A failure in one does not cancel the
// other; the first error is returned.
func (s *Service) generate(ctx context.Context, profile nutrition.UserProfile, targets nutrition.Targets) (*planning.Result, error) {
	ctx, span := tracer.Start(ctx, "planner.Generate")
	defer span.End()
	start := s.now()

	var (
		g       errgroup.Group
		recipes []mealplan.Recipe
		fitness *mealplan.FitnessPlan
	)
	g.Go(func() error {
		var err error
		recipes, err = s.meals.Generate(ctx, ai.MealPlanRequestFrom(targets, profile.Goal))
		if err != nil {
			return err
		}
		if err := mealplan.CheckCoverage(recipes); err != nil {
			return fmt.Errorf("%w: %w", ai.ErrMealPlanGeneration, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fitness, err = s.fitness.Generate(ctx, ai.FitnessRequestFrom(profile, targets))
		return err
	})

	err := g.Wait()
	duration := s.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan generation failed")
		s.metrics.PlanGeneration("error", duration)
		s.logger.Error("Plan generation failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("mealplan.recipes", len(recipes)),
		attribute.Int("fitness.exercises", len(fitness.Exercises)),
	)
	s.metrics.PlanGeneration("success", duration)
	s.logger.Info("Plan generated",
		zap.Int("recipes", len(recipes)),
		zap.Int("exercises", len(fitness.Exercises)),
		zap.Duration("duration", duration),
	)

	return &planning.Result{
		Profile: profile,
		Targets: targets,
		Recipes: recipes,
		Fitness: *fitness,
	}, nil
}

// Session returns the stored session, or a fresh one on the form step
func (s *Service) Session(ctx context.Context, sessionID string) (*planning.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := *sess
	return &snapshot, nil
}

// Reset clears the session back to an empty form
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load session")
	}
	if sess == nil {
		return nil
	}

	sess.Reset()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return apperrors.Wrap(err, "failed to save session")
	}
	s.logger.Info("Session reset", zap.String("session_id", sessionID), zap.Int("attempt", sess.Attempt))
	return nil
}

// Report renders the session's plan. It fails with CodeReportUnavailable
// unless all four entities are present.
func (s *Service) Report(ctx context.Context, sessionID string, w io.Writer) (inbound.ReportFile, error) {
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return inbound.ReportFile{}, err
	}
	result, err := sess.Result()
	if err != nil {
		return inbound.ReportFile{}, apperrors.NewReportUnavailableError(sessionID).WithCause(err)
	}
	return s.RenderReport(result, w)
}

// RenderReport renders a plan that did not come from a session
func (s *Service) RenderReport(result planning.Result, w io.Writer) (inbound.ReportFile, error) {
	generatedAt := s.now()
	if err := s.renderer.Render(w, outbound.Report{Result: result, GeneratedAt: generatedAt}); err != nil {
		s.metrics.ReportRendered("error")
		s.logger.Error("Report rendering failed", zap.Error(err))
		return inbound.ReportFile{}, apperrors.Wrap(err, "failed to render report")
	}
	s.metrics.ReportRendered("success")
	return inbound.ReportFile{
		Filename:    s.renderer.Filename(generatedAt),
		ContentType: s.renderer.ContentType(),
	}, nil
}

// Drain waits for background generations to finish or ctx to expire
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load returns the stored session or a new one, expiring an overdue
// loading step on the way. Callers hold mu.
func (s *Service) load(ctx context.Context, sessionID string) (*planning.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load session")
	}
	if sess == nil {
		return planning.NewSession(sessionID), nil
	}

	if s.loadingTimeout > 0 && sess.Expire(s.now(), s.loadingTimeout, GenericFailureMessage) {
		s.logger.Warn("Abandoning generation that outlived its deadline",
			zap.String("session_id", sessionID),
			zap.Int("attempt", sess.Attempt),
			zap.Duration("timeout", s.loadingTimeout),
		)
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, apperrors.Wrap(err, "failed to save session")
		}
	}
	return sess, nil
}

// FailureMessage maps a generation error to the text shown to the user
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ai.ErrMealPlanGeneration):
		return MealPlanFailureMessage
	case errors.Is(err, ai.ErrFitnessGeneration):
		return FitnessFailureMessage
	default:
		return GenericFailureMessage
	}
}
