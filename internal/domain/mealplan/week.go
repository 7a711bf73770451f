package mealplan

import (
	"errors"
	"fmt"
	"math"
)

// ErrIncompleteWeek means at least one meal category has no recipe at all
var ErrIncompleteWeek = errors.New("meal plan does not cover every meal category")

// DayLongNames are the weekday names used on the interactive page
var DayLongNames = [DaysPerWeek]string{
	"Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira", "Sexta-feira", "Sábado", "Domingo",
}

// Meal is a recipe placed into a category slot of a day
type Meal struct {
	Category MealCategory
	Recipe   Recipe
}

// DayPlan is one day of the interactive weekly view
type DayPlan struct {
	Name     string
	Meals    []Meal
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
	Fiber    float64
	Cost     float64
}

// Week is the category-organised view shown in the results page
type Week struct {
	Days                 []DayPlan
	AverageDailyCalories float64
	WeeklyCost           float64
}

// CheckCoverage returns ErrIncompleteWeek unless every category has at
// least one recipe, which is enough for OrganizeWeek to fill all 35 slots.
func CheckCoverage(recipes []Recipe) error {
	seen := make(map[MealCategory]bool, len(Categories))
	for _, r := range recipes {
		seen[r.Category] = true
	}
	for _, c := range Categories {
		if !seen[c] {
			return fmt.Errorf("%w: missing %s", ErrIncompleteWeek, c)
		}
	}
	return nil
}

// OrganizeWeek groups recipes by category and assigns the n-th recipe of
// each category to day n. Days past the end of a category reuse its first
// recipe. Categories without any recipe leave their slot empty.
func OrganizeWeek(recipes []Recipe) Week {
	byCategory := make(map[MealCategory][]Recipe, len(Categories))
	for _, r := range recipes {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	week := Week{Days: make([]DayPlan, 0, DaysPerWeek)}
	var totalCalories float64
	for i := 0; i < DaysPerWeek; i++ {
		day := DayPlan{Name: DayLongNames[i]}
		for _, c := range Categories {
			list := byCategory[c]
			if len(list) == 0 {
				continue
			}
			r := list[0]
			if i < len(list) {
				r = list[i]
			}
			day.Meals = append(day.Meals, Meal{Category: c, Recipe: r})
			day.Calories += r.Calories
			day.Protein += r.Protein
			day.Carbs += r.Carbs
			day.Fats += r.Fats
			day.Fiber += r.Fiber
			day.Cost += r.Cost
		}
		day.Calories = math.Round(day.Calories)
		day.Protein = math.Round(day.Protein)
		day.Carbs = math.Round(day.Carbs)
		day.Fats = math.Round(day.Fats)
		day.Fiber = math.Round(day.Fiber)

		totalCalories += day.Calories
		week.WeeklyCost += day.Cost
		week.Days = append(week.Days, day)
	}
	// The average is taken over the rounded daily totals shown on the page.
	week.AverageDailyCalories = math.Round(totalCalories / DaysPerWeek)

	return week
}

// ChunkByDay splits recipes into seven contiguous groups of ceil(n/7)
// items in list order, ignoring categories. The report uses this grouping,
// so a day in the report can differ from the same day in OrganizeWeek.
func ChunkByDay(recipes []Recipe) [DaysPerWeek][]Recipe {
	var days [DaysPerWeek][]Recipe
	if len(recipes) == 0 {
		return days
	}

	perDay := (len(recipes) + DaysPerWeek - 1) / DaysPerWeek
	for i, r := range recipes {
		d := i / perDay
		if d < DaysPerWeek {
			days[d] = append(days[d], r)
		}
	}
	return days
}
