package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

func sampleReport(recipeCount int) outbound.Report {
	profile := nutrition.UserProfile{
		Age:           25,
		Gender:        nutrition.GenderFemale,
		Weight:        82.5,
		Height:        165,
		ActivityLevel: nutrition.ActivityLight,
		Goal:          nutrition.GoalLose,
	}

	recipes := make([]mealplan.Recipe, 0, recipeCount)
	for i := 0; i < recipeCount; i++ {
		c := mealplan.Categories[i%len(mealplan.Categories)]
		recipes = append(recipes, mealplan.Recipe{
			ID:          fmt.Sprintf("recipe-%d", i),
			Name:        fmt.Sprintf("Receita “especial” nº %d", i),
			Category:    c,
			Calories:    420,
			Protein:     30.5,
			Carbs:       45,
			Fats:        12,
			Ingredients: []string{"arroz integral", "feijão", "frango grelhado", "brócolis", "azeite de oliva extra virgem"},
			Cost:        9.9,
		})
	}

	return outbound.Report{
		Result: planning.Result{
			Profile: profile,
			Targets: nutrition.CalculateNutritionalNeeds(profile),
			Recipes: recipes,
			Fitness: mealplan.FitnessPlan{
				WaterIntake: 2.9,
				Exercises: []mealplan.Exercise{
					{Name: "Caminhada rápida", Type: "Cardio", Intensity: mealplan.IntensityModerate, Duration: 40, CaloriesBurned: 220,
						Description: strings.Repeat("Mantenha um ritmo constante — respire pelo nariz. ", 6)},
					{Name: "Agachamento", Type: "Força", Intensity: mealplan.IntensityHigh, Duration: 20, CaloriesBurned: 150,
						Description: "Três séries de doze repetições."},
				},
			},
		},
		GeneratedAt: time.Date(2024, 5, 17, 22, 0, 0, 0, time.UTC),
	}
}

func TestPDFRenderer_RendersValidDocument(t *testing.T) {
	r := NewPDFRenderer("cardapio", zaptest.NewLogger(t))
	var buf bytes.Buffer

	require.NoError(t, r.Render(&buf, sampleReport(35)))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
	// 35 recipes cannot fit on the first page and fitness starts a new one
	assert.GreaterOrEqual(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 3)
}

func TestPDFRenderer_MinimalPlanUsesTwoPages(t *testing.T) {
	r := NewPDFRenderer("cardapio", zaptest.NewLogger(t))
	var buf bytes.Buffer

	require.NoError(t, r.Render(&buf, sampleReport(1)))

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")))
}

func TestPDFRenderer_IsDeterministicForAFixedTime(t *testing.T) {
	r := NewPDFRenderer("cardapio", zaptest.NewLogger(t))
	var a, b bytes.Buffer

	require.NoError(t, r.Render(&a, sampleReport(7)))
	require.NoError(t, r.Render(&b, sampleReport(7)))

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestPDFRenderer_FilenameAndContentType(t *testing.T) {
	r := NewPDFRenderer("cardapio", zaptest.NewLogger(t))

	at := time.Date(2024, 1, 9, 23, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
	assert.Equal(t, "relatorio-nutricional-2024-01-10.pdf", r.Filename(at))
	assert.Equal(t, "application/pdf", r.ContentType())
}

func TestDocument_Wrap(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	doc := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	doc.font("", 10)

	text := strings.Repeat("palavra ", 60)
	lines := doc.wrap(doc.tr(text), wideWrap)

	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, pdf.GetStringWidth(line), wideWrap)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
	assert.Nil(t, doc.wrap("   ", wideWrap))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "2094", num(2094))
	assert.Equal(t, "82.5", num(82.5))
	assert.Equal(t, "2.9", num(2.9))
}
