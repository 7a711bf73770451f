package mealplan

import "github.com/alchemorsel/cardapio/internal/domain/nutrition"

// Intensity of an exercise session
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

var intensityLabels = map[Intensity]string{
	IntensityLow:      "Baixa",
	IntensityModerate: "Moderada",
	IntensityHigh:     "Alta",
}

// Label returns the Portuguese intensity name
func (i Intensity) Label() string {
	if l, ok := intensityLabels[i]; ok {
		return l
	}
	return string(i)
}

// Exercise is one recommended activity
type Exercise struct {
	Name            string    `json:"name" validate:"required"`
	Type            string    `json:"type"`
	Intensity       Intensity `json:"intensity"`
	CaloriesPerHour float64   `json:"caloriesPerHour"`
	Duration        float64   `json:"duration"`
	CaloriesBurned  float64   `json:"caloriesBurned"`
	Description     string    `json:"description"`
	Tips            []string  `json:"tips"`
}

// FitnessPlan is the daily water target plus an ordered exercise list
type FitnessPlan struct {
	WaterIntake float64    `json:"waterIntake" validate:"gt=0"`
	Exercises   []Exercise `json:"exercises" validate:"required,min=1,dive"`
}

var goalSummaries = map[nutrition.Goal]string{
	nutrition.GoalLose: "Para perder peso de forma saudável, combine exercícios cardiovasculares com treino de força. " +
		"O cardio ajuda a queimar calorias, enquanto o treino de força preserva e constrói massa muscular, aumentando seu metabolismo.",
	nutrition.GoalGain: "Para ganhar massa muscular, priorize exercícios de força e hipertrofia. " +
		"Combine com exercícios cardiovasculares moderados para manter a saúde cardiovascular sem comprometer o ganho de massa.",
	nutrition.GoalMaintain: "Para manter seu peso atual, mantenha um equilíbrio entre exercícios cardiovasculares e de força. " +
		"Isso ajudará a preservar sua composição corporal e saúde geral.",
}

// GoalSummary is the training advice paragraph for a goal
func GoalSummary(g nutrition.Goal) string {
	if s, ok := goalSummaries[g]; ok {
		return s
	}
	return "Mantenha uma rotina regular de exercícios para alcançar seus objetivos de saúde e bem-estar."
}

// HydrationTips is the generic advice printed next to the water target
const HydrationTips = "Beba água regularmente ao longo do dia, especialmente antes, durante e após exercícios. " +
	"Mantenha uma garrafa de água sempre por perto e aumente a ingestão em dias quentes ou durante atividades físicas intensas."

// Disclaimer is shown at the bottom of every result surface
const Disclaimer = "Os valores nutricionais são estimativas. Consulte um nutricionista para orientação personalizada."
