package ai

import (
	"fmt"
	"math"
	"strings"

	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
)

var mealGoalText = map[nutrition.Goal]string{
	nutrition.GoalLose:     "perder peso (deficit calórico)",
	nutrition.GoalMaintain: "manter peso",
	nutrition.GoalGain:     "ganhar peso (superavit calórico)",
}

var fitnessGoalText = map[nutrition.Goal]string{
	nutrition.GoalLose:     "perder peso",
	nutrition.GoalMaintain: "manter peso",
	nutrition.GoalGain:     "ganhar massa muscular",
}

var fitnessGoalEmphasis = map[nutrition.Goal]string{
	nutrition.GoalLose:     "Priorize exercícios que queimem mais calorias (cardio + força)",
	nutrition.GoalMaintain: "Balance entre cardio e força para manutenção",
	nutrition.GoalGain:     "Priorize exercícios de força e hipertrofia",
}

const jsonOnly = "Não adicione texto antes ou depois do JSON. Apenas o JSON puro."

// buildMealPlanPrompt describes the targets, the schema and the cuisine rules
func buildMealPlanPrompt(req MealPlanRequest) string {
	var prompt strings.Builder

	prompt.WriteString("Você é um nutricionista especializado em culinária brasileira. ")
	prompt.WriteString("Crie um cardápio semanal (7 dias) com receitas típicas brasileiras, acessíveis e nutritivas.\n\n")

	prompt.WriteString("REQUISITOS NUTRICIONAIS:\n")
	prompt.WriteString(fmt.Sprintf("- Meta calórica diária: %.0f kcal\n", req.TargetCalories))
	prompt.WriteString(fmt.Sprintf("- Proteínas: %.0fg por dia\n", req.Protein))
	prompt.WriteString(fmt.Sprintf("- Carboidratos: %.0fg por dia\n", req.Carbs))
	prompt.WriteString(fmt.Sprintf("- Gorduras: %.0fg por dia\n", req.Fats))
	prompt.WriteString(fmt.Sprintf("- Objetivo: %s\n\n", mealGoalText[req.Goal]))

	prompt.WriteString("INSTRUÇÕES:\n")
	prompt.WriteString("1. Crie 35 receitas no total (5 refeições por dia × 7 dias):\n")
	prompt.WriteString("   - 7 cafés da manhã (breakfast)\n")
	prompt.WriteString("   - 7 lanches da manhã (morning-snack)\n")
	prompt.WriteString("   - 7 almoços (lunch)\n")
	prompt.WriteString("   - 7 lanches da tarde (afternoon-snack)\n")
	prompt.WriteString("   - 7 jantares (dinner)\n\n")

	prompt.WriteString("2. Use APENAS pratos típicos brasileiros e acessíveis como:\n")
	prompt.WriteString("   - Café da manhã: pão com ovo, tapioca, mingau de aveia, cuscuz, frutas com granola\n")
	prompt.WriteString("   - Lanche da manhã: frutas, iogurte, castanhas, vitaminas, pão integral\n")
	prompt.WriteString("   - Almoço/Jantar: arroz com feijão, frango grelhado, peixe assado, carne moída, macarrão, saladas\n")
	prompt.WriteString("   - Lanche da tarde: frutas, iogurte, sanduíche natural, vitaminas, biscoitos integrais\n\n")

	prompt.WriteString("3. Cada receita deve ter:\n")
	prompt.WriteString("   - id: string único (ex: \"breakfast-1\", \"lunch-1\")\n")
	prompt.WriteString("   - name: nome descritivo em português\n")
	prompt.WriteString("   - category: \"breakfast\", \"morning-snack\", \"lunch\", \"afternoon-snack\" ou \"dinner\"\n")
	prompt.WriteString("   - calories, protein, carbs, fats: números inteiros\n")
	prompt.WriteString("   - fiber: gramas de fibra (número inteiro, entre 2 e 15)\n")
	prompt.WriteString("   - ingredients: array de strings com ingredientes\n")
	prompt.WriteString("   - preparation: modo de preparo em 1-2 frases curtas\n")
	prompt.WriteString("   - cost: custo em reais (número decimal entre 2.5 e 15.0)\n\n")

	prompt.WriteString("4. Distribua as calorias aproximadamente assim:\n")
	prompt.WriteString("   - Café da manhã: 25% das calorias diárias\n")
	prompt.WriteString("   - Lanche da manhã: 10% das calorias diárias\n")
	prompt.WriteString("   - Almoço: 30% das calorias diárias\n")
	prompt.WriteString("   - Lanche da tarde: 10% das calorias diárias\n")
	prompt.WriteString("   - Jantar: 25% das calorias diárias\n\n")

	prompt.WriteString("5. Varie as receitas para não repetir pratos durante a semana.\n\n")

	prompt.WriteString("IMPORTANTE: Retorne APENAS um JSON válido no formato:\n")
	prompt.WriteString(`{"recipes": [{"id": "breakfast-1", "name": "Tapioca com Ovo", "category": "breakfast", ` +
		`"calories": 350, "protein": 15, "carbs": 45, "fats": 12, "fiber": 3, ` +
		`"ingredients": ["2 colheres de goma de tapioca", "2 ovos", "sal a gosto"], ` +
		`"preparation": "Aqueça a frigideira, espalhe a tapioca e adicione o ovo. Dobre e sirva.", "cost": 5.0}]}`)
	prompt.WriteString("\n\n")
	prompt.WriteString(jsonOnly)

	return prompt.String()
}

// buildFitnessPrompt asks for a water target and five exercises
func buildFitnessPrompt(req FitnessRequest) string {
	var prompt strings.Builder

	prompt.WriteString("Você é um personal trainer e nutricionista. ")
	prompt.WriteString("Crie recomendações personalizadas de exercícios e hidratação.\n\n")

	prompt.WriteString("DADOS DO USUÁRIO:\n")
	prompt.WriteString(fmt.Sprintf("- Peso: %g kg\n", req.Weight))
	prompt.WriteString(fmt.Sprintf("- Altura: %g cm\n", req.Height))
	prompt.WriteString(fmt.Sprintf("- Idade: %d anos\n", req.Age))
	prompt.WriteString(fmt.Sprintf("- Sexo: %s\n", strings.ToLower(req.Gender.Label())))
	prompt.WriteString(fmt.Sprintf("- Nível de atividade: %s\n", req.ActivityLevel.Describe()))
	prompt.WriteString(fmt.Sprintf("- Objetivo: %s\n", fitnessGoalText[req.Goal]))
	switch req.Goal {
	case nutrition.GoalLose:
		prompt.WriteString(fmt.Sprintf("- Deficit calórico diário: %.0f kcal\n\n", math.Abs(req.CalorieDelta)))
	case nutrition.GoalGain:
		prompt.WriteString(fmt.Sprintf("- Superavit calórico diário: %.0f kcal\n\n", req.CalorieDelta))
	default:
		prompt.WriteString("- Manutenção de peso\n\n")
	}

	prompt.WriteString("INSTRUÇÕES:\n\n")
	prompt.WriteString("1. HIDRATAÇÃO:\n")
	prompt.WriteString("   - Calcule a quantidade de água recomendada em litros por dia\n")
	prompt.WriteString("   - Base: 35ml por kg de peso corporal\n")
	prompt.WriteString("   - Ajuste para nível de atividade física\n")
	prompt.WriteString("   - Retorne apenas o número em litros (ex: 2.5)\n\n")

	prompt.WriteString("2. EXERCÍCIOS (crie exatamente 5 recomendações):\n")
	prompt.WriteString("   - Varie as intensidades (low, moderate, high)\n")
	prompt.WriteString("   - Inclua exercícios acessíveis que podem ser feitos em casa ou academia\n")
	prompt.WriteString("   - Para cada exercício, forneça:\n")
	prompt.WriteString("     * name: nome do exercício em português\n")
	prompt.WriteString("     * type: tipo (cardio, força, flexibilidade, etc)\n")
	prompt.WriteString("     * intensity: \"low\", \"moderate\" ou \"high\"\n")
	prompt.WriteString("     * caloriesPerHour: calorias queimadas por hora\n")
	prompt.WriteString("     * duration: duração recomendada em minutos\n")
	prompt.WriteString("     * caloriesBurned: total de calorias queimadas na sessão\n")
	prompt.WriteString("     * description: descrição breve de como fazer\n")
	prompt.WriteString("     * tips: array com 2-3 dicas importantes\n\n")

	prompt.WriteString("3. CONSIDERAÇÕES:\n")
	prompt.WriteString(fmt.Sprintf("   - %s\n", fitnessGoalEmphasis[req.Goal]))
	prompt.WriteString("   - Adapte a intensidade ao nível de atividade atual\n")
	prompt.WriteString("   - Sugira exercícios realistas e sustentáveis\n\n")

	prompt.WriteString("Exemplos de exercícios: caminhada, corrida, ciclismo, natação, musculação, HIIT, yoga, pilates, dança, pular corda.\n\n")

	prompt.WriteString("IMPORTANTE: Retorne APENAS um JSON válido no formato:\n")
	prompt.WriteString(`{"waterIntake": 2.5, "exercises": [{"name": "Caminhada Rápida", "type": "cardio", ` +
		`"intensity": "moderate", "caloriesPerHour": 300, "duration": 45, "caloriesBurned": 225, ` +
		`"description": "Caminhe em ritmo acelerado mantendo a postura ereta", ` +
		`"tips": ["Use tênis adequado", "Mantenha os braços em movimento", "Hidrate-se durante"]}]}`)
	prompt.WriteString("\n\n")
	prompt.WriteString(jsonOnly)

	return prompt.String()
}
