// Package ai provides the application layer for AI operations: it turns
// nutrition targets and profiles into prompts and the replies into a
// validated meal plan and fitness plan.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

// Coarse errors returned by the requesters. The underlying cause, such as
// ErrNoJSONObject or a transport error, stays reachable through errors.Is.
var (
	ErrMealPlanGeneration = errors.New("failed to generate meal plan")
	ErrFitnessGeneration  = errors.New("failed to generate fitness recommendations")
)

const mealPlanMaxTokens = 8000

var tracer = otel.Tracer("github.com/alchemorsel/cardapio/internal/application/ai")

var validate = validator.New()

// MealPlanRequest carries the daily targets the menu must respect
type MealPlanRequest struct {
	TargetCalories float64
	Protein        float64
	Carbs          float64
	Fats           float64
	Goal           nutrition.Goal
}

// MealPlanRequestFrom builds a request from computed targets
func MealPlanRequestFrom(t nutrition.Targets, goal nutrition.Goal) MealPlanRequest {
	return MealPlanRequest{
		TargetCalories: t.TargetCalories,
		Protein:        t.Protein,
		Carbs:          t.Carbs,
		Fats:           t.Fats,
		Goal:           goal,
	}
}

// MealPlanRequester asks the text generator for a week of recipes
type MealPlanRequester struct {
	generator outbound.TextGenerator
	logger    *zap.Logger
}

// NewMealPlanRequester creates a meal plan requester
func NewMealPlanRequester(generator outbound.TextGenerator, logger *zap.Logger) *MealPlanRequester {
	return &MealPlanRequester{
		generator: generator,
		logger:    logger.Named("meal-plan-requester"),
	}
}

// Generate returns the normalised recipes. Any failure is wrapped in
// ErrMealPlanGeneration; nothing is retried.
func (r *MealPlanRequester) Generate(ctx context.Context, req MealPlanRequest) ([]mealplan.Recipe, error) {
	ctx, span := tracer.Start(ctx, "ai.GenerateMealPlan", trace.WithAttributes(
		attribute.String("ai.provider", r.generator.Provider()),
		attribute.Float64("nutrition.target_calories", req.TargetCalories),
	))
	defer span.End()

	r.logger.Info("Requesting meal plan",
		zap.Float64("target_calories", req.TargetCalories),
		zap.String("goal", string(req.Goal)),
	)

	gen, err := r.generator.Generate(ctx, outbound.GenerationRequest{
		Prompt:    buildMealPlanPrompt(req),
		MaxTokens: mealPlanMaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, r.fail(span, err)
	}

	object, err := ExtractJSONObject(gen.Text)
	if err != nil {
		r.logger.Warn("No JSON object in meal plan reply", zap.String("head", head(gen.Text)))
		return nil, r.fail(span, err)
	}

	recipes, err := parseRecipes(object)
	if err != nil {
		return nil, r.fail(span, err)
	}

	span.SetAttributes(attribute.Int("mealplan.recipes", len(recipes)))
	r.logger.Info("Meal plan generated",
		zap.Int("recipes", len(recipes)),
		zap.String("model", gen.Model),
	)
	return recipes, nil
}

func (r *MealPlanRequester) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, ErrMealPlanGeneration.Error())
	r.logger.Error("Meal plan generation failed", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrMealPlanGeneration, err)
}

// FitnessRequest carries the profile data used by the fitness prompt
type FitnessRequest struct {
	Weight        float64
	Height        float64
	Age           int
	Gender        nutrition.Gender
	ActivityLevel nutrition.ActivityLevel
	Goal          nutrition.Goal
	CalorieDelta  float64
}

// FitnessRequestFrom builds a request from a profile and its targets
func FitnessRequestFrom(p nutrition.UserProfile, t nutrition.Targets) FitnessRequest {
	return FitnessRequest{
		Weight:        p.Weight,
		Height:        p.Height,
		Age:           p.Age,
		Gender:        p.Gender,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
		CalorieDelta:  t.CalorieDelta,
	}
}

// FitnessRequester asks the text generator for exercise and hydration advice
type FitnessRequester struct {
	generator outbound.TextGenerator
	logger    *zap.Logger
}

// NewFitnessRequester creates a fitness requester
func NewFitnessRequester(generator outbound.TextGenerator, logger *zap.Logger) *FitnessRequester {
	return &FitnessRequester{
		generator: generator,
		logger:    logger.Named("fitness-requester"),
	}
}

// Generate returns the plan decoded as is. There is no per-field
// defaulting: a malformed object fails the whole request.
func (r *FitnessRequester) Generate(ctx context.Context, req FitnessRequest) (*mealplan.FitnessPlan, error) {
	ctx, span := tracer.Start(ctx, "ai.GenerateFitnessPlan", trace.WithAttributes(
		attribute.String("ai.provider", r.generator.Provider()),
		attribute.String("nutrition.goal", string(req.Goal)),
	))
	defer span.End()

	r.logger.Info("Requesting fitness plan", zap.String("goal", string(req.Goal)))

	gen, err := r.generator.Generate(ctx, outbound.GenerationRequest{
		Prompt: buildFitnessPrompt(req),
		JSON:   true,
	})
	if err != nil {
		return nil, r.fail(span, err)
	}

	object, err := ExtractJSONObject(gen.Text)
	if err != nil {
		return nil, r.fail(span, err)
	}

	var plan mealplan.FitnessPlan
	if err := json.Unmarshal([]byte(object), &plan); err != nil {
		return nil, r.fail(span, fmt.Errorf("%w: %v", ErrSchemaMismatch, err))
	}
	if err := validate.Struct(plan); err != nil {
		return nil, r.fail(span, fmt.Errorf("%w: %v", ErrSchemaMismatch, err))
	}

	r.logger.Info("Fitness plan generated",
		zap.Int("exercises", len(plan.Exercises)),
		zap.Float64("water_liters", plan.WaterIntake),
	)
	return &plan, nil
}

func (r *FitnessRequester) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, ErrFitnessGeneration.Error())
	r.logger.Error("Fitness plan generation failed", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrFitnessGeneration, err)
}

func head(s string) string {
	const n = 200
	if len(s) <= n {
		return s
	}
	return s[:n]
}
