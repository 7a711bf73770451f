package handlers

import (
	"strconv"
	"strings"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
)

// PageData is the root of the layout template. Exactly one of Form,
// Loading and Results is set.
type PageData struct {
	Title      string
	AppName    string
	Version    string
	Disclaimer string
	Form       *FormView
	Loading    *LoadingView
	Results    *ResultsView
}

// FormView drives the data-entry form
type FormView struct {
	Values     FormValues
	Error      string
	Genders    []Option
	Activities []Option
	Goals      []Option
	Limits     FormLimits
}

// Option is one <option> of a select
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FormLimits are the HTML input ranges, matching the profile validation
type FormLimits struct {
	AgeMin, AgeMax       int
	WeightMin, WeightMax float64
	WeightStep           float64
	HeightMin, HeightMax float64
}

var formLimits = FormLimits{
	AgeMin: 15, AgeMax: 100,
	WeightMin: 30, WeightMax: 300, WeightStep: 0.1,
	HeightMin: 100, HeightMax: 250,
}

// FormValues holds raw form input so a rejected form is shown as typed
type FormValues struct {
	Age           string
	Weight        string
	Height        string
	Gender        string
	ActivityLevel string
	Goal          string
}

// LoadingView is shown while the plans are being generated
type LoadingView struct {
	TargetCalories float64
	Goal           string
}

// ResultsView is the complete plan as shown on the page
type ResultsView struct {
	Profile       nutrition.UserProfile
	Targets       nutrition.Targets
	BMI           float64
	BMICategory   string
	BMIBand       string
	MacroOverflow bool
	Week          mealplan.Week
	Fitness       mealplan.FitnessPlan
	GoalSummary   string
	HydrationTips string
}

// valuesFromProfile prefills the form. Zero numbers stay blank.
func valuesFromProfile(p nutrition.UserProfile) FormValues {
	v := FormValues{
		Gender:        string(p.Gender),
		ActivityLevel: string(p.ActivityLevel),
		Goal:          string(p.Goal),
	}
	if p.Age > 0 {
		v.Age = strconv.Itoa(p.Age)
	}
	if p.Weight > 0 {
		v.Weight = strconv.FormatFloat(p.Weight, 'f', -1, 64)
	}
	if p.Height > 0 {
		v.Height = strconv.FormatFloat(p.Height, 'f', -1, 64)
	}
	return v
}

// Profile converts the raw input. Decimal commas are accepted.
func (v FormValues) Profile() (nutrition.UserProfile, error) {
	age, err := strconv.Atoi(strings.TrimSpace(v.Age))
	if err != nil {
		return nutrition.UserProfile{}, err
	}
	weight, err := parseDecimal(v.Weight)
	if err != nil {
		return nutrition.UserProfile{}, err
	}
	height, err := parseDecimal(v.Height)
	if err != nil {
		return nutrition.UserProfile{}, err
	}
	return nutrition.UserProfile{
		Age:           age,
		Gender:        nutrition.Gender(v.Gender),
		Weight:        weight,
		Height:        height,
		ActivityLevel: nutrition.ActivityLevel(v.ActivityLevel),
		Goal:          nutrition.Goal(v.Goal),
	}, nil
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

func newFormView(values FormValues, message string) *FormView {
	form := &FormView{Values: values, Error: message, Limits: formLimits}

	for _, g := range []nutrition.Gender{nutrition.GenderMale, nutrition.GenderFemale} {
		form.Genders = append(form.Genders, Option{string(g), g.Label(), string(g) == values.Gender})
	}
	for _, a := range nutrition.ActivityLevels {
		form.Activities = append(form.Activities, Option{string(a), a.Label(), string(a) == values.ActivityLevel})
	}
	for _, g := range nutrition.Goals {
		form.Goals = append(form.Goals, Option{string(g), g.FormLabel(), string(g) == values.Goal})
	}
	return form
}

func newLoadingView(sess *planning.Session) *LoadingView {
	view := &LoadingView{}
	if sess.Targets != nil {
		view.TargetCalories = sess.Targets.TargetCalories
	}
	if sess.Profile != nil {
		view.Goal = sess.Profile.Goal.Label()
	}
	return view
}

func newResultsView(result planning.Result) *ResultsView {
	bmi := nutrition.CalculateBMI(result.Profile.Weight, result.Profile.Height)
	return &ResultsView{
		Profile:       result.Profile,
		Targets:       result.Targets,
		BMI:           bmi,
		BMICategory:   nutrition.BMICategory(bmi),
		BMIBand:       nutrition.BMIBand(bmi),
		MacroOverflow: result.Targets.MacroOverflow(),
		Week:          mealplan.OrganizeWeek(result.Recipes),
		Fitness:       result.Fitness,
		GoalSummary:   mealplan.GoalSummary(result.Profile.Goal),
		HydrationTips: mealplan.HydrationTips,
	}
}
