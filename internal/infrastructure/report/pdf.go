// Package report renders the downloadable nutrition report as a PDF
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

// Layout in millimetres on an A4 portrait page
const (
	pageCenter  = 105.0
	marginLeft  = 14.0
	indentLeft  = 18.0
	secondCol   = 80.0
	thirdCol    = 140.0
	wideWrap    = 180.0
	narrowWrap  = 175.0
	topOfPage   = 20.0
	footerY     = 285.0
	fontFamily  = "Helvetica"
	contentType = "application/pdf"
)

// Cursor limits past which a block starts on a new page
const (
	menuHeaderLimit = 240.0
	dayLimit        = 250.0
	recipeLimit     = 270.0
	exerciseLimit   = 260.0
	hydrationLimit  = 240.0
)

// PDFRenderer implements outbound.ReportRenderer
type PDFRenderer struct {
	appName string
	logger  *zap.Logger
}

var _ outbound.ReportRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(appName string, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{
		appName: appName,
		logger:  logger.Named("pdf-renderer"),
	}
}

// ContentType implements outbound.ReportRenderer
func (r *PDFRenderer) ContentType() string {
	return contentType
}

// Filename uses the UTC calendar date of generation
func (r *PDFRenderer) Filename(generatedAt time.Time) string {
	return fmt.Sprintf("relatorio-nutricional-%s.pdf", generatedAt.UTC().Format("2006-01-02"))
}

// Render writes the complete report to w
func (r *PDFRenderer) Render(w io.Writer, report outbound.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(r.appName, true)
	pdf.SetTitle("Relatório nutricional personalizado", true)
	pdf.SetCreationDate(report.GeneratedAt)
	pdf.SetModificationDate(report.GeneratedAt)

	doc := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	doc.header(report.GeneratedAt)
	doc.profile(report.Profile)
	doc.diagnosis(report.Profile.Goal, report.Targets)
	doc.menu(report.Recipes)
	doc.fitness(report.Profile.Goal, report.Fitness)
	doc.hydration(report.Fitness.WaterIntake)
	doc.footer()

	if err := pdf.Output(w); err != nil {
		r.logger.Error("Failed to write PDF", zap.Error(err))
		return fmt.Errorf("render report: %w", err)
	}

	r.logger.Debug("Report rendered",
		zap.Int("pages", pdf.PageCount()),
		zap.Int("recipes", len(report.Recipes)),
		zap.Int("exercises", len(report.Fitness.Exercises)),
	)
	return nil
}

// document tracks the write cursor. Text is translated to cp1252 before
// it reaches fpdf because the core fonts only cover that code page.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func (d *document) font(style string, size float64) {
	d.pdf.SetFont(fontFamily, style, size)
}

func (d *document) text(x float64, s string) {
	d.pdf.Text(x, d.y, d.tr(s))
}

func (d *document) centered(y float64, s string) {
	t := d.tr(s)
	d.pdf.Text(pageCenter-d.pdf.GetStringWidth(t)/2, y, t)
}

func (d *document) ensure(limit float64) {
	if d.y > limit {
		d.newPage()
	}
}

func (d *document) newPage() {
	d.pdf.AddPage()
	d.y = topOfPage
}

// paragraph draws s wrapped to width and returns the number of lines
func (d *document) paragraph(x float64, s string, width, lineHeight float64) int {
	lines := d.wrap(d.tr(s), width)
	for i, line := range lines {
		d.pdf.Text(x, d.y+float64(i)*lineHeight, line)
	}
	return len(lines)
}

// wrap splits already translated text on spaces so no line exceeds width.
// A single word wider than width gets a line of its own.
func (d *document) wrap(s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if d.pdf.GetStringWidth(candidate) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}

func (d *document) header(generatedAt time.Time) {
	d.font("B", 20)
	d.centered(20, "Relatório nutricional personalizado")

	d.font("", 10)
	d.centered(28, "Gerado em: "+generatedAt.Format("02/01/2006"))

	d.y = 40
}

func (d *document) profile(p nutrition.UserProfile) {
	d.sectionTitle("Perfil do usuário")

	d.text(marginLeft, fmt.Sprintf("Idade: %d anos", p.Age))
	d.text(secondCol, "Sexo: "+p.Gender.Label())
	d.y += 6
	d.text(marginLeft, fmt.Sprintf("Peso: %s kg", num(p.Weight)))
	d.text(secondCol, fmt.Sprintf("Altura: %s cm", num(p.Height)))
	d.y += 6

	bmi := nutrition.CalculateBMI(p.Weight, p.Height)
	c := nutrition.BMIColor(bmi)
	d.pdf.SetTextColor(c.R, c.G, c.B)
	d.text(marginLeft, fmt.Sprintf("IMC: %s (%s)", num(bmi), nutrition.BMICategory(bmi)))
	d.pdf.SetTextColor(0, 0, 0)
	d.y += 10
}

func (d *document) diagnosis(goal nutrition.Goal, t nutrition.Targets) {
	d.sectionTitle("Diagnóstico nutricional")

	d.text(marginLeft, "Objetivo: "+goal.Label())
	d.y += 6

	d.text(marginLeft, fmt.Sprintf("TMB (Taxa Metabólica Basal): %s kcal/dia", num(t.BMR)))
	d.y += 4
	d.caption("Calorias necessárias em repouso para funções vitais")

	d.text(marginLeft, fmt.Sprintf("TDEE (Gasto Energético Total Diário): %s kcal/dia", num(t.TDEE)))
	d.y += 4
	d.caption("Total de calorias queimadas por dia incluindo atividades")

	d.text(marginLeft, fmt.Sprintf("Meta Calórica Diária: %s kcal/dia", num(t.TargetCalories)))
	d.y += 6

	if t.CalorieDelta != 0 {
		kind := "Déficit"
		if t.CalorieDelta > 0 {
			kind = "Superávit"
		}
		d.text(marginLeft, fmt.Sprintf("%s Calórico: %s kcal/dia", kind, num(math.Abs(t.CalorieDelta))))
		d.y += 6
	}

	d.text(marginLeft, fmt.Sprintf("Proteínas: %sg/dia", num(t.Protein)))
	d.text(secondCol, fmt.Sprintf("Carboidratos: %sg/dia", num(t.Carbs)))
	d.text(thirdCol, fmt.Sprintf("Gorduras: %sg/dia", num(t.Fats)))
	d.y += 10

	d.font("I", 10)
	n := d.paragraph(marginLeft, t.Recommendation, wideWrap, 5)
	d.y += float64(n)*5 + 10
}

func (d *document) menu(recipes []mealplan.Recipe) {
	d.ensure(menuHeaderLimit)
	d.sectionTitle("Cardápio semanal")

	for i, day := range mealplan.ChunkByDay(recipes) {
		if len(day) == 0 {
			continue
		}
		d.ensure(dayLimit)

		d.font("B", 12)
		d.text(marginLeft, mealplan.DayNames[i])
		d.y += 6

		for _, recipe := range day {
			d.ensure(recipeLimit)

			d.font("B", 10)
			d.text(indentLeft, fmt.Sprintf("%s (%s): %s",
				recipe.Category.Label(), recipe.Category.TimeWindow(), recipe.Name))
			d.y += 5

			d.font("", 10)
			d.text(indentLeft, fmt.Sprintf("%s kcal | P: %sg | C: %sg | G: %sg",
				num(recipe.Calories), num(recipe.Protein), num(recipe.Carbs), num(recipe.Fats)))
			d.y += 5

			n := d.paragraph(indentLeft, "Ingredientes: "+strings.Join(recipe.Ingredients, ", "), narrowWrap, 4)
			d.y += float64(n)*4 + 3
		}

		d.y += 3
	}
}

func (d *document) fitness(goal nutrition.Goal, plan mealplan.FitnessPlan) {
	d.newPage()

	d.font("B", 14)
	d.text(marginLeft, "Recomendações de atividade física")
	d.y += 10

	d.font("", 10)
	n := d.paragraph(marginLeft, mealplan.GoalSummary(goal), wideWrap, 5)
	d.y += float64(n)*5 + 8

	for _, ex := range plan.Exercises {
		d.ensure(exerciseLimit)

		d.font("B", 10)
		d.text(marginLeft, "• "+ex.Name)
		d.y += 5

		d.font("", 10)
		d.text(indentLeft, "Tipo: "+ex.Type)
		d.y += 5
		d.text(indentLeft, fmt.Sprintf("Duração: %s minutos", num(ex.Duration)))
		d.y += 5
		d.text(indentLeft, fmt.Sprintf("Calorias queimadas: ~%s kcal", num(ex.CaloriesBurned)))
		d.y += 5

		n := d.paragraph(indentLeft, ex.Description, narrowWrap, 4)
		d.y += float64(n)*4 + 6
	}
}

func (d *document) hydration(liters float64) {
	d.ensure(hydrationLimit)
	d.sectionTitle("Hidratação")

	d.text(marginLeft, fmt.Sprintf("Meta diária de água: %s litros", num(liters)))
	d.y += 6
	d.paragraph(marginLeft, mealplan.HydrationTips, wideWrap, 5)
}

func (d *document) footer() {
	d.font("I", 8)
	d.centered(footerY, mealplan.Disclaimer)
}

// sectionTitle leaves the font at regular 10pt for the section body
func (d *document) sectionTitle(title string) {
	d.font("B", 14)
	d.text(marginLeft, title)
	d.y += 8
	d.font("", 10)
}

func (d *document) caption(s string) {
	d.font("I", 8)
	d.text(indentLeft, s)
	d.y += 5
	d.font("", 10)
}

// num prints integers without decimals and other values as short as possible
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
