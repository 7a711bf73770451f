package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
)

// MockPlannerService is a mock implementation of inbound.PlannerService
type MockPlannerService struct {
	mock.Mock
}

var _ inbound.PlannerService = (*MockPlannerService)(nil)

func (m *MockPlannerService) Submit(ctx context.Context, sessionID string, profile nutrition.UserProfile) (*planning.Session, error) {
	args := m.Called(ctx, sessionID, profile)
	sess, _ := args.Get(0).(*planning.Session)
	return sess, args.Error(1)
}

func (m *MockPlannerService) Session(ctx context.Context, sessionID string) (*planning.Session, error) {
	args := m.Called(ctx, sessionID)
	sess, _ := args.Get(0).(*planning.Session)
	return sess, args.Error(1)
}

func (m *MockPlannerService) Reset(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPlannerService) Report(ctx context.Context, sessionID string, w io.Writer) (inbound.ReportFile, error) {
	args := m.Called(ctx, sessionID, w)
	return args.Get(0).(inbound.ReportFile), args.Error(1)
}

func (m *MockPlannerService) Calculate(profile nutrition.UserProfile) (nutrition.Targets, error) {
	args := m.Called(profile)
	return args.Get(0).(nutrition.Targets), args.Error(1)
}

func (m *MockPlannerService) Generate(ctx context.Context, profile nutrition.UserProfile) (*planning.Result, error) {
	args := m.Called(ctx, profile)
	result, _ := args.Get(0).(*planning.Result)
	return result, args.Error(1)
}

func (m *MockPlannerService) RenderReport(result planning.Result, w io.Writer) (inbound.ReportFile, error) {
	args := m.Called(result, w)
	return args.Get(0).(inbound.ReportFile), args.Error(1)
}

func sampleProfile() nutrition.UserProfile {
	return nutrition.UserProfile{
		Age:           25,
		Gender:        nutrition.GenderMale,
		Weight:        70,
		Height:        175,
		ActivityLevel: nutrition.ActivityModerate,
		Goal:          nutrition.GoalLose,
	}
}

func sampleResult() planning.Result {
	profile := sampleProfile()

	recipes := make([]mealplan.Recipe, 0, 35)
	for day := 0; day < mealplan.DaysPerWeek; day++ {
		for _, c := range mealplan.Categories {
			recipes = append(recipes, mealplan.Recipe{
				ID:          fmt.Sprintf("%s-%d", c, day),
				Name:        fmt.Sprintf("%s do dia %d", c.Label(), day+1),
				Category:    c,
				Calories:    400,
				Protein:     25,
				Carbs:       45,
				Fats:        12,
				Fiber:       4,
				Ingredients: []string{"aveia", "banana"},
				Preparation: "Misture tudo.",
				Cost:        7.5,
			})
		}
	}

	return planning.Result{
		Profile: profile,
		Targets: nutrition.CalculateNutritionalNeeds(profile),
		Recipes: recipes,
		Fitness: mealplan.FitnessPlan{
			WaterIntake: 2.5,
			Exercises: []mealplan.Exercise{
				{
					Name:            "Caminhada",
					Type:            "Cardio",
					Intensity:       mealplan.IntensityModerate,
					CaloriesPerHour: 300,
					Duration:        45,
					CaloriesBurned:  225,
					Description:     "Caminhe em ritmo acelerado.",
					Tips:            []string{"Use tênis confortável"},
				},
			},
		},
	}
}

func resultsSession(id string) *planning.Session {
	r := sampleResult()
	return &planning.Session{
		ID:      id,
		Step:    planning.StepResults,
		Attempt: 1,
		Profile: &r.Profile,
		Targets: &r.Targets,
		Recipes: r.Recipes,
		Fitness: &r.Fitness,
	}
}
