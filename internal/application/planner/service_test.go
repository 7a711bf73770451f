package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/cardapio/internal/application/ai"
	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/infrastructure/monitoring"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/session"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

type MockMealPlanGenerator struct {
	mock.Mock
}

func (m *MockMealPlanGenerator) Generate(ctx context.Context, req ai.MealPlanRequest) ([]mealplan.Recipe, error) {
	args := m.Called(ctx, req)
	recipes, _ := args.Get(0).([]mealplan.Recipe)
	return recipes, args.Error(1)
}

type MockFitnessGenerator struct {
	mock.Mock
}

func (m *MockFitnessGenerator) Generate(ctx context.Context, req ai.FitnessRequest) (*mealplan.FitnessPlan, error) {
	args := m.Called(ctx, req)
	plan, _ := args.Get(0).(*mealplan.FitnessPlan)
	return plan, args.Error(1)
}

type stubRenderer struct {
	reports []outbound.Report
}

func (r *stubRenderer) Render(w io.Writer, report outbound.Report) error {
	r.reports = append(r.reports, report)
	_, err := io.WriteString(w, "%PDF-stub")
	return err
}

func (r *stubRenderer) Filename(t time.Time) string {
	return fmt.Sprintf("relatorio-nutricional-%s.pdf", t.Format("2006-01-02"))
}

func (r *stubRenderer) ContentType() string { return "application/pdf" }

func weekOfRecipes() []mealplan.Recipe {
	recipes := make([]mealplan.Recipe, 0, len(mealplan.Categories))
	for i, c := range mealplan.Categories {
		recipes = append(recipes, mealplan.Recipe{
			ID:       fmt.Sprintf("recipe-%d", i),
			Name:     "Receita " + c.Label(),
			Category: c,
			Calories: 400,
			Cost:     8,
		})
	}
	return recipes
}

func fitnessPlan() *mealplan.FitnessPlan {
	return &mealplan.FitnessPlan{
		WaterIntake: 2.8,
		Exercises: []mealplan.Exercise{
			{Name: "Caminhada", Intensity: mealplan.IntensityLow, Duration: 30},
		},
	}
}

type ServiceSuite struct {
	suite.Suite
	meals    *MockMealPlanGenerator
	fitness  *MockFitnessGenerator
	renderer *stubRenderer
	cache    *memory.CacheRepository
	sessions *session.Repository
	metrics  *monitoring.MetricsCollector
	service  *Service
	ctx      context.Context
	profile  nutrition.UserProfile
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	s.meals = new(MockMealPlanGenerator)
	s.fitness = new(MockFitnessGenerator)
	s.renderer = &stubRenderer{}
	s.cache = memory.NewCacheRepository(0)
	s.metrics = monitoring.NewMetricsCollector(logger)
	s.sessions = session.NewRepository(s.cache, "memory", time.Hour, s.metrics, logger)

	s.service = NewService(s.meals, s.fitness, s.sessions, s.renderer, s.metrics, 0, logger)
	s.service.now = func() time.Time { return time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC) }
	s.ctx = context.Background()
	s.profile = nutrition.UserProfile{
		Age:           25,
		Gender:        nutrition.GenderMale,
		Weight:        70,
		Height:        175,
		ActivityLevel: nutrition.ActivityModerate,
		Goal:          nutrition.GoalLose,
	}
}

func (s *ServiceSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *ServiceSuite) drain() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(s.service.Drain(ctx))
}

func (s *ServiceSuite) TestFlow_FormLoadingResults() {
	gate := make(chan struct{})
	s.meals.On("Generate", mock.Anything, mock.MatchedBy(func(req ai.MealPlanRequest) bool {
		return req.TargetCalories == 2094 && req.Goal == nutrition.GoalLose
	})).Run(func(mock.Arguments) { <-gate }).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.MatchedBy(func(req ai.FitnessRequest) bool {
		return req.CalorieDelta == -500 && req.Weight == 70
	})).Return(fitnessPlan(), nil).Once()

	initial, err := s.service.Session(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(planning.StepForm, initial.Step)

	submitted, err := s.service.Submit(s.ctx, "sess-1", s.profile)
	s.Require().NoError(err)
	s.Equal(planning.StepLoading, submitted.Step)
	s.Equal(2094.0, submitted.Targets.TargetCalories)

	loading, err := s.service.Session(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(planning.StepLoading, loading.Step)

	close(gate)
	s.drain()

	done, err := s.service.Session(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(planning.StepResults, done.Step)
	s.True(done.Ready())
	s.Len(done.Recipes, len(mealplan.Categories))
	s.Equal(2.8, done.Fitness.WaterIntake)
	s.Empty(done.Error)

	var buf bytes.Buffer
	file, err := s.service.Report(s.ctx, "sess-1", &buf)
	s.Require().NoError(err)
	s.Equal("relatorio-nutricional-2024-05-17.pdf", file.Filename)
	s.Equal("application/pdf", file.ContentType)
	s.Equal("%PDF-stub", buf.String())
	s.Require().Len(s.renderer.reports, 1)
	s.Equal(s.profile, s.renderer.reports[0].Profile)

	s.meals.AssertExpectations(s.T())
	s.fitness.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestFlow_FitnessFailureReturnsToForm() {
	s.meals.On("Generate", mock.Anything, mock.Anything).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", ai.ErrFitnessGeneration, errors.New("timeout"))).Once()

	_, err := s.service.Submit(s.ctx, "sess-2", s.profile)
	s.Require().NoError(err)
	s.drain()

	sess, err := s.service.Session(s.ctx, "sess-2")
	s.Require().NoError(err)
	s.Equal(planning.StepForm, sess.Step)
	s.Equal(FitnessFailureMessage, sess.Error)
	s.Nil(sess.Profile)
	s.Nil(sess.Recipes)

	_, err = s.service.Report(s.ctx, "sess-2", io.Discard)
	s.True(apperrors.Is(err, apperrors.CodeReportUnavailable))
}

func (s *ServiceSuite) TestFlow_IncompleteWeekIsAMealPlanFailure() {
	s.meals.On("Generate", mock.Anything, mock.Anything).Return(weekOfRecipes()[:3], nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	_, err := s.service.Submit(s.ctx, "sess-3", s.profile)
	s.Require().NoError(err)
	s.drain()

	sess, err := s.service.Session(s.ctx, "sess-3")
	s.Require().NoError(err)
	s.Equal(planning.StepForm, sess.Step)
	s.Equal(MealPlanFailureMessage, sess.Error)
}

func (s *ServiceSuite) TestSubmit_RejectsWhileLoading() {
	gate := make(chan struct{})
	s.meals.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	_, err := s.service.Submit(s.ctx, "sess-4", s.profile)
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, "sess-4", s.profile)
	s.True(apperrors.Is(err, apperrors.CodeGenerationInProgress))

	close(gate)
	s.drain()
	s.meals.AssertNumberOfCalls(s.T(), "Generate", 1)
}

func (s *ServiceSuite) TestReset_DiscardsInFlightCompletion() {
	gate := make(chan struct{})
	s.meals.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	_, err := s.service.Submit(s.ctx, "sess-5", s.profile)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Reset(s.ctx, "sess-5"))

	close(gate)
	s.drain()

	sess, err := s.service.Session(s.ctx, "sess-5")
	s.Require().NoError(err)
	s.Equal(planning.StepForm, sess.Step)
	s.Nil(sess.Recipes)
	s.Empty(sess.Error)
}

func (s *ServiceSuite) TestSession_OverdueLoadingReturnsToForm() {
	// the first instance's generation never finishes
	started := make(chan struct{})
	gate := make(chan struct{})
	s.meals.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(started); <-gate }).
		Return(weekOfRecipes(), nil).Once()
	s.meals.On("Generate", mock.Anything, mock.Anything).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Twice()

	_, err := s.service.Submit(s.ctx, "sess-9", s.profile)
	s.Require().NoError(err)
	<-started

	// a second instance sharing the store, past the deadline
	other := NewService(s.meals, s.fitness, s.sessions, s.renderer, s.metrics, time.Minute, zaptest.NewLogger(s.T()))
	other.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	sess, err := other.Session(s.ctx, "sess-9")
	s.Require().NoError(err)
	s.Equal(planning.StepForm, sess.Step)
	s.Equal(GenericFailureMessage, sess.Error)
	s.Nil(sess.Profile)

	_, err = other.Submit(s.ctx, "sess-9", s.profile)
	s.Require().NoError(err)
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(other.Drain(ctx))

	// the abandoned generation lands late and is discarded
	close(gate)
	s.drain()

	sess, err = other.Session(s.ctx, "sess-9")
	s.Require().NoError(err)
	s.Equal(planning.StepResults, sess.Step)
	s.Equal(2, sess.Attempt)
	s.True(sess.Ready())
}

func (s *ServiceSuite) TestSession_LoadingWithinDeadlineIsKept() {
	gate := make(chan struct{})
	s.meals.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	s.service.loadingTimeout = time.Hour
	s.service.now = time.Now
	_, err := s.service.Submit(s.ctx, "sess-10", s.profile)
	s.Require().NoError(err)

	sess, err := s.service.Session(s.ctx, "sess-10")
	s.Require().NoError(err)
	s.Equal(planning.StepLoading, sess.Step)

	close(gate)
	s.drain()
}

func (s *ServiceSuite) TestSubmit_InvalidProfile() {
	s.profile.Age = 5

	_, err := s.service.Submit(s.ctx, "sess-6", s.profile)

	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
	s.ErrorIs(err, nutrition.ErrInvalidProfile)
	s.meals.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestReport_UnknownSession() {
	_, err := s.service.Report(s.ctx, "never-seen", io.Discard)

	s.True(apperrors.Is(err, apperrors.CodeReportUnavailable))
	s.Empty(s.renderer.reports)
}

func (s *ServiceSuite) TestGenerate_Synchronous() {
	s.meals.On("Generate", mock.Anything, mock.Anything).Return(weekOfRecipes(), nil).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	result, err := s.service.Generate(s.ctx, s.profile)

	s.Require().NoError(err)
	s.Equal(2094.0, result.Targets.TargetCalories)
	s.Len(result.Recipes, 5)
	s.Equal("Caminhada", result.Fitness.Exercises[0].Name)
}

func (s *ServiceSuite) TestGenerate_FailureCarriesUserMessage() {
	s.meals.On("Generate", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", ai.ErrMealPlanGeneration, ai.ErrNoJSONObject)).Once()
	s.fitness.On("Generate", mock.Anything, mock.Anything).Return(fitnessPlan(), nil).Once()

	_, err := s.service.Generate(s.ctx, s.profile)

	s.Require().Error(err)
	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(apperrors.CodeGenerationFailed, appErr.Code)
	s.Equal(MealPlanFailureMessage, appErr.Message)
	s.ErrorIs(err, ai.ErrNoJSONObject)
	// the sibling call still ran to completion
	s.fitness.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestCalculate() {
	targets, err := s.service.Calculate(s.profile)

	s.Require().NoError(err)
	s.Equal(2094.0, targets.TargetCalories)
	s.Equal(-500.0, targets.CalorieDelta)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"meal", fmt.Errorf("%w: boom", ai.ErrMealPlanGeneration), MealPlanFailureMessage},
		{"fitness", fmt.Errorf("%w: boom", ai.ErrFitnessGeneration), FitnessFailureMessage},
		{"other", errors.New("boom"), GenericFailureMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureMessage(tt.err); got != tt.want {
				t.Errorf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
