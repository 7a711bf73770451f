package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
)

// recipeDefaults is the fallback for every recipe field the generator
// omits or garbles. A bad field never discards the whole recipe.
var recipeDefaults = struct {
	Name        string
	Category    mealplan.MealCategory
	Calories    float64
	Protein     float64
	Carbs       float64
	Fats        float64
	Fiber       float64
	Ingredients []string
	Preparation string
	Cost        float64
}{
	Name:        "Receita sem nome",
	Category:    mealplan.AfternoonSnack,
	Calories:    300,
	Protein:     15,
	Carbs:       40,
	Fats:        10,
	Fiber:       3,
	Ingredients: []string{"Ingredientes não disponíveis"},
	Preparation: "Modo de preparo não disponível",
	Cost:        5.0,
}

type rawRecipe map[string]json.RawMessage

// parseRecipes decodes the envelope and normalises each element on its own
func parseRecipes(object string) ([]mealplan.Recipe, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(object), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	raw, ok := envelope["recipes"]
	if !ok {
		return nil, fmt.Errorf("%w: missing recipes field", ErrSchemaMismatch)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, fmt.Errorf("%w: recipes is not an array", ErrSchemaMismatch)
	}

	recipes := make([]mealplan.Recipe, 0, len(items))
	for i, item := range items {
		var fields rawRecipe
		// a non-object element is normalised entirely from defaults
		_ = json.Unmarshal(item, &fields)
		recipes = append(recipes, normalizeRecipe(fields, i))
	}
	return recipes, nil
}

func normalizeRecipe(f rawRecipe, index int) mealplan.Recipe {
	d := recipeDefaults

	r := mealplan.Recipe{
		ID:          f.text("id", fmt.Sprintf("recipe-%d", index)),
		Name:        f.text("name", d.Name),
		Category:    d.Category,
		Calories:    f.number(d.Calories, "calories"),
		Protein:     f.number(d.Protein, "protein"),
		Carbs:       f.number(d.Carbs, "carbs"),
		Fats:        f.number(d.Fats, "fats"),
		Fiber:       f.number(d.Fiber, "fiber"),
		Ingredients: f.list("ingredients", d.Ingredients),
		Preparation: f.text("preparation", ""),
		Cost:        f.number(d.Cost, "cost", "estimatedCost"),
	}

	if c := mealplan.MealCategory(f.text("category", "")); c.Valid() {
		r.Category = c
	}

	if r.Preparation == "" {
		if steps := f.list("instructions", nil); len(steps) > 0 {
			r.Preparation = strings.Join(steps, " ")
		} else {
			r.Preparation = d.Preparation
		}
	}

	return r
}

// text returns a non-empty string field or the fallback. Numeric ids are
// accepted and formatted.
func (f rawRecipe) text(key, fallback string) string {
	raw, ok := f[key]
	if !ok {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return fallback
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String()
	}
	return fallback
}

// number tries each key in turn and accepts positive numbers or numeric
// strings. Zero, negatives and non-numbers fall through to the next key.
func (f rawRecipe) number(fallback float64, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}

		var v float64
		if err := json.Unmarshal(raw, &v); err == nil && v > 0 {
			return v
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && v > 0 {
				return v
			}
		}
	}
	return fallback
}

// list returns the string elements of an array field. Non-array values
// yield the fallback; an empty array is kept as is.
func (f rawRecipe) list(key string, fallback []string) []string {
	raw, ok := f[key]
	if !ok {
		return append([]string(nil), fallback...)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return append([]string(nil), fallback...)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		// keep numbers and other scalars readable
		out = append(out, strings.Trim(string(item), `"`))
	}
	return out
}
