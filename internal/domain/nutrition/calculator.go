package nutrition

import "math"

// Calories per gram of each macronutrient
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

const (
	loseDelta = -500
	gainDelta = 300

	proteinPerKg  = 2.0
	fatEnergyRate = 0.25
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

var recommendations = map[Goal]string{
	GoalLose:     "Deficit calórico para perda de peso saudável (0,5kg por semana)",
	GoalGain:     "Superavit calórico para ganho de massa muscular",
	GoalMaintain: "Manutenção do peso atual",
}

// Targets are the daily energy and macro goals derived from a UserProfile.
// Values are never mutated after creation.
type Targets struct {
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	TargetCalories float64 `json:"targetCalories"`
	Protein        float64 `json:"protein"`
	Carbs          float64 `json:"carbs"`
	Fats           float64 `json:"fats"`
	Recommendation string  `json:"recommendation"`
	// CalorieDelta is TargetCalories minus TDEE: negative for a deficit
	CalorieDelta float64 `json:"calorieDeficitOrSurplus"`
}

// MacroOverflow reports whether protein and fat alone exceed the calorie
// target, which drives carbohydrates below zero.
func (t Targets) MacroOverflow() bool {
	return t.Carbs < 0
}

// MacroCalories returns the energy implied by the three macro targets
func (t Targets) MacroCalories() float64 {
	return t.Protein*kcalPerGramProtein + t.Carbs*kcalPerGramCarbs + t.Fats*kcalPerGramFat
}

// CalculateBMR applies the Mifflin-St Jeor equation. The result is not rounded.
func CalculateBMR(p UserProfile) float64 {
	base := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == GenderMale {
		return base + 5
	}
	return base - 161
}

// CalculateTDEE scales a BMR by the activity factor and rounds to the
// nearest kcal. Unknown levels fall back to the sedentary factor.
func CalculateTDEE(bmr float64, level ActivityLevel) float64 {
	m, ok := activityMultipliers[level]
	if !ok {
		m = activityMultipliers[ActivitySedentary]
	}
	return round(bmr * m)
}

// CalculateNutritionalNeeds derives the full set of daily targets.
// Carbohydrates are not floored and go negative when protein and fat
// exceed the calorie target; see Targets.MacroOverflow.
func CalculateNutritionalNeeds(p UserProfile) Targets {
	bmr := CalculateBMR(p)
	tdee := CalculateTDEE(bmr, p.ActivityLevel)

	target := tdee
	switch p.Goal {
	case GoalLose:
		target = tdee + loseDelta
	case GoalGain:
		target = tdee + gainDelta
	}

	protein := round(p.Weight * proteinPerKg)
	fats := round(target * fatEnergyRate / kcalPerGramFat)
	carbs := round((target - protein*kcalPerGramProtein - fats*kcalPerGramFat) / kcalPerGramCarbs)

	return Targets{
		BMR:            round(bmr),
		TDEE:           tdee,
		TargetCalories: target,
		Protein:        protein,
		Carbs:          carbs,
		Fats:           fats,
		Recommendation: recommendations[p.Goal],
		CalorieDelta:   target - tdee,
	}
}

// round matches half-up rounding towards positive infinity
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
