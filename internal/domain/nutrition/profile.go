// Package nutrition holds the body-metric math behind a personalised plan:
// the user profile collected by the form and the calorie and macro targets
// derived from it.
package nutrition

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Gender is the biological sex used by the Mifflin-St Jeor equation
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Label returns the Portuguese display name
func (g Gender) Label() string {
	if g == GenderMale {
		return "Masculino"
	}
	return "Feminino"
}

// ActivityLevel describes how much the user exercises in a typical week
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very-active"
)

// ActivityLevels lists every level in form order
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLight,
	ActivityModerate,
	ActivityActive,
	ActivityVeryActive,
}

var activityLabels = map[ActivityLevel]string{
	ActivitySedentary:  "Sedentário (pouco ou nenhum exercício)",
	ActivityLight:      "Leve (exercício 1-3 dias/semana)",
	ActivityModerate:   "Moderado (exercício 3-5 dias/semana)",
	ActivityActive:     "Ativo (exercício 6-7 dias/semana)",
	ActivityVeryActive: "Muito Ativo (exercício intenso diário)",
}

var activityShortLabels = map[ActivityLevel]string{
	ActivitySedentary:  "sedentário",
	ActivityLight:      "levemente ativo",
	ActivityModerate:   "moderadamente ativo",
	ActivityActive:     "muito ativo",
	ActivityVeryActive: "extremamente ativo",
}

// Label returns the form label for the level
func (a ActivityLevel) Label() string {
	if l, ok := activityLabels[a]; ok {
		return l
	}
	return string(a)
}

// Describe returns a short lowercase description used inside sentences
func (a ActivityLevel) Describe() string {
	if l, ok := activityShortLabels[a]; ok {
		return l
	}
	return string(a)
}

// Goal is what the user wants to achieve with the plan
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// Goals lists every goal in form order
var Goals = []Goal{GoalLose, GoalMaintain, GoalGain}

var goalFormLabels = map[Goal]string{
	GoalLose:     "Perder peso (deficit calórico)",
	GoalMaintain: "Manter peso (manutenção)",
	GoalGain:     "Ganhar massa muscular (superavit calórico)",
}

var goalLabels = map[Goal]string{
	GoalLose:     "Perder peso",
	GoalMaintain: "Manter peso",
	GoalGain:     "Ganhar peso",
}

// Label returns the short goal name shown in reports
func (g Goal) Label() string {
	if l, ok := goalLabels[g]; ok {
		return l
	}
	return string(g)
}

// FormLabel returns the option text shown in the data-entry form
func (g Goal) FormLabel() string {
	if l, ok := goalFormLabels[g]; ok {
		return l
	}
	return string(g)
}

// UserProfile is the anthropometric data submitted through the form.
// It is treated as immutable once submitted.
type UserProfile struct {
	Age           int           `json:"age" validate:"required,gte=15,lte=100"`
	Gender        Gender        `json:"gender" validate:"required,oneof=male female"`
	Weight        float64       `json:"weight" validate:"required,gte=30,lte=300"`
	Height        float64       `json:"height" validate:"required,gte=100,lte=250"`
	ActivityLevel ActivityLevel `json:"activityLevel" validate:"required,oneof=sedentary light moderate active very-active"`
	Goal          Goal          `json:"goal" validate:"required,oneof=lose maintain gain"`
}

var validate = validator.New()

// Validate checks the profile against the ranges accepted by the form
func (p UserProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

// DefaultProfile returns the values preselected in an empty form
func DefaultProfile() UserProfile {
	return UserProfile{
		Gender:        GenderMale,
		ActivityLevel: ActivityModerate,
		Goal:          GoalMaintain,
	}
}
