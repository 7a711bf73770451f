// Package mealplan models the generated weekly menu and fitness plan
package mealplan

// MealCategory is one of the five daily eating occasions
type MealCategory string

const (
	Breakfast      MealCategory = "breakfast"
	MorningSnack   MealCategory = "morning-snack"
	Lunch          MealCategory = "lunch"
	AfternoonSnack MealCategory = "afternoon-snack"
	Dinner         MealCategory = "dinner"
)

// Categories lists the meal slots in the order they happen during a day
var Categories = []MealCategory{Breakfast, MorningSnack, Lunch, AfternoonSnack, Dinner}

// DaysPerWeek is the length of a plan
const DaysPerWeek = 7

// DayNames are the Portuguese weekday names starting on Monday
var DayNames = [DaysPerWeek]string{"Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado", "Domingo"}

var categoryLabels = map[MealCategory]string{
	Breakfast:      "Café da manhã",
	MorningSnack:   "Lanche da manhã",
	Lunch:          "Almoço",
	AfternoonSnack: "Lanche da tarde",
	Dinner:         "Jantar",
}

var categoryTimes = map[MealCategory]string{
	Breakfast:      "07:00 - 08:00",
	MorningSnack:   "09:00 - 10:00",
	Lunch:          "12:00 - 13:00",
	AfternoonSnack: "15:00 - 16:00",
	Dinner:         "19:00 - 20:00",
}

// Valid reports whether c is a known category
func (c MealCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the Portuguese meal name
func (c MealCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// TimeWindow returns the suggested time for the meal, or "" if unknown
func (c MealCategory) TimeWindow() string {
	return categoryTimes[c]
}

// Recipe is a single generated dish. Values come from an untrusted
// generator and are normalised before a Recipe is built.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    MealCategory `json:"category"`
	Calories    float64      `json:"calories"`
	Protein     float64      `json:"protein"`
	Carbs       float64      `json:"carbs"`
	Fats        float64      `json:"fats"`
	Fiber       float64      `json:"fiber"`
	Ingredients []string     `json:"ingredients"`
	Preparation string       `json:"preparation"`
	Cost        float64      `json:"cost"`
}
