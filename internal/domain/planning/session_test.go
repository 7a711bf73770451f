package planning

import (
	"testing"
	"time"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile() nutrition.UserProfile {
	return nutrition.UserProfile{
		Age: 25, Gender: nutrition.GenderMale, Weight: 70, Height: 170,
		ActivityLevel: nutrition.ActivitySedentary, Goal: nutrition.GoalMaintain,
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("Success_ShouldReachResults", func(t *testing.T) {
		s := NewSession("abc")
		p := profile()

		attempt, err := s.Begin(p, nutrition.CalculateNutritionalNeeds(p))
		require.NoError(t, err)
		assert.Equal(t, StepLoading, s.Step)
		assert.False(t, s.Ready())

		err = s.Complete(attempt, []mealplan.Recipe{{ID: "r1"}}, mealplan.FitnessPlan{WaterIntake: 2.5})
		require.NoError(t, err)

		assert.Equal(t, StepResults, s.Step)
		assert.True(t, s.Ready())
		res, err := s.Result()
		require.NoError(t, err)
		assert.Equal(t, p, res.Profile)
	})

	t.Run("Failure_ShouldReturnToFormWithoutData", func(t *testing.T) {
		s := NewSession("abc")
		attempt, _ := s.Begin(profile(), nutrition.Targets{})

		require.NoError(t, s.Fail(attempt, "erro"))

		assert.Equal(t, StepForm, s.Step)
		assert.Equal(t, "erro", s.Error)
		assert.Nil(t, s.Profile)
		assert.Nil(t, s.Targets)
	})

	t.Run("BeginWhileLoading_ShouldBeRejected", func(t *testing.T) {
		s := NewSession("abc")
		_, _ = s.Begin(profile(), nutrition.Targets{})

		_, err := s.Begin(profile(), nutrition.Targets{})

		assert.ErrorIs(t, err, ErrGenerationInProgress)
	})

	t.Run("ResetDuringLoading_ShouldDropLateCompletion", func(t *testing.T) {
		s := NewSession("abc")
		attempt, _ := s.Begin(profile(), nutrition.Targets{})

		s.Reset()
		err := s.Complete(attempt, []mealplan.Recipe{{ID: "r1"}}, mealplan.FitnessPlan{})

		assert.ErrorIs(t, err, ErrStaleAttempt)
		assert.Equal(t, StepForm, s.Step)
		assert.Empty(t, s.Recipes)
	})

	t.Run("ResultBeforeCompletion_ShouldBeUnavailable", func(t *testing.T) {
		_, err := NewSession("abc").Result()
		assert.ErrorIs(t, err, ErrReportUnavailable)
	})

	t.Run("NewSubmission_ShouldClearPreviousError", func(t *testing.T) {
		s := NewSession("abc")
		attempt, _ := s.Begin(profile(), nutrition.Targets{})
		_ = s.Fail(attempt, "erro")

		_, err := s.Begin(profile(), nutrition.Targets{})

		require.NoError(t, err)
		assert.Empty(t, s.Error)
	})

	t.Run("Expire_ShouldFailOnlyOverdueLoading", func(t *testing.T) {
		s := NewSession("abc")
		attempt, _ := s.Begin(profile(), nutrition.Targets{})
		started := s.UpdatedAt

		assert.False(t, s.Expire(started.Add(time.Minute), 2*time.Minute, "erro"))
		assert.Equal(t, StepLoading, s.Step)

		assert.True(t, s.Expire(started.Add(3*time.Minute), 2*time.Minute, "erro"))
		assert.Equal(t, StepForm, s.Step)
		assert.Equal(t, "erro", s.Error)
		assert.Nil(t, s.Profile)

		// the abandoned generation can no longer land
		err := s.Complete(attempt, []mealplan.Recipe{{ID: "r1"}}, mealplan.FitnessPlan{})
		assert.ErrorIs(t, err, ErrStaleAttempt)

		_, err = s.Begin(profile(), nutrition.Targets{})
		assert.NoError(t, err)
	})

	t.Run("Expire_ShouldIgnoreOtherSteps", func(t *testing.T) {
		s := NewSession("abc")
		assert.False(t, s.Expire(s.UpdatedAt.Add(time.Hour), time.Minute, "erro"))
		assert.Equal(t, StepForm, s.Step)
		assert.Empty(t, s.Error)
	})
}
