// Package planning models one user's pass through the planner:
// form, then loading while the generators run, then results.
package planning

import (
	"errors"
	"time"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
)

// Step is the screen the session is on
type Step string

const (
	StepForm    Step = "form"
	StepLoading Step = "loading"
	StepResults Step = "results"
)

var (
	ErrGenerationInProgress = errors.New("a plan is already being generated")
	ErrReportUnavailable    = errors.New("report is only available once a plan is complete")
	ErrStaleAttempt         = errors.New("attempt was superseded")
)

// Result bundles the four entities a complete plan consists of
type Result struct {
	Profile nutrition.UserProfile `json:"profile"`
	Targets nutrition.Targets     `json:"targets"`
	Recipes []mealplan.Recipe     `json:"recipes"`
	Fitness mealplan.FitnessPlan  `json:"fitness"`
}

// Session holds the state of one browser session. Profile and Targets are
// set while loading; Recipes and Fitness only once both generators succeed.
type Session struct {
	ID        string                 `json:"id"`
	Step      Step                   `json:"step"`
	Attempt   int                    `json:"attempt"`
	Profile   *nutrition.UserProfile `json:"profile,omitempty"`
	Targets   *nutrition.Targets     `json:"targets,omitempty"`
	Recipes   []mealplan.Recipe      `json:"recipes,omitempty"`
	Fitness   *mealplan.FitnessPlan  `json:"fitness,omitempty"`
	Error     string                 `json:"error,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// NewSession returns an empty session on the form step
func NewSession(id string) *Session {
	return &Session{ID: id, Step: StepForm, UpdatedAt: time.Now()}
}

// Begin moves the session to loading for a new attempt and returns its number
func (s *Session) Begin(profile nutrition.UserProfile, targets nutrition.Targets) (int, error) {
	if s.Step == StepLoading {
		return 0, ErrGenerationInProgress
	}
	s.clear()
	s.Attempt++
	s.Step = StepLoading
	s.Profile = &profile
	s.Targets = &targets
	s.UpdatedAt = time.Now()
	return s.Attempt, nil
}

// Complete stores the generated plan and moves to results
func (s *Session) Complete(attempt int, recipes []mealplan.Recipe, fitness mealplan.FitnessPlan) error {
	if s.Attempt != attempt || s.Step != StepLoading {
		return ErrStaleAttempt
	}
	s.Recipes = recipes
	s.Fitness = &fitness
	s.Step = StepResults
	s.UpdatedAt = time.Now()
	return nil
}

// Fail discards the attempt's data and returns to the form with a message
func (s *Session) Fail(attempt int, message string) error {
	if s.Attempt != attempt || s.Step != StepLoading {
		return ErrStaleAttempt
	}
	s.clear()
	s.Step = StepForm
	s.Error = message
	s.UpdatedAt = time.Now()
	return nil
}

// Expire fails a loading attempt that has not finished within maxAge of
// starting. It reports whether the session changed. A completion arriving
// afterwards is stale because the step is no longer loading.
func (s *Session) Expire(now time.Time, maxAge time.Duration, message string) bool {
	if s.Step != StepLoading || now.Sub(s.UpdatedAt) <= maxAge {
		return false
	}
	return s.Fail(s.Attempt, message) == nil
}

// Reset starts over. The attempt counter survives so in-flight work is dropped.
func (s *Session) Reset() {
	s.clear()
	s.Attempt++
	s.Step = StepForm
	s.UpdatedAt = time.Now()
}

// Ready reports whether all four entities are present
func (s *Session) Ready() bool {
	return s.Step == StepResults && s.Profile != nil && s.Targets != nil &&
		len(s.Recipes) > 0 && s.Fitness != nil
}

// Result returns the complete plan or ErrReportUnavailable
func (s *Session) Result() (Result, error) {
	if !s.Ready() {
		return Result{}, ErrReportUnavailable
	}
	return Result{
		Profile: *s.Profile,
		Targets: *s.Targets,
		Recipes: s.Recipes,
		Fitness: *s.Fitness,
	}, nil
}

func (s *Session) clear() {
	s.Profile = nil
	s.Targets = nil
	s.Recipes = nil
	s.Fitness = nil
	s.Error = ""
}
