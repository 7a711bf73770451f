package nutrition

import "math"

// BMI category thresholds
const (
	bmiUnderweight = 18.5
	bmiNormal      = 25.0
	bmiOverweight  = 30.0
)

// CalculateBMI returns weight / height² (height in cm) rounded to one decimal
func CalculateBMI(weight, height float64) float64 {
	m := height / 100
	return math.Floor(weight/(m*m)*10+0.5) / 10
}

// BMICategory names the screening band for a BMI value
func BMICategory(bmi float64) string {
	switch {
	case bmi < bmiUnderweight:
		return "Abaixo do peso"
	case bmi < bmiNormal:
		return "Peso normal"
	case bmi < bmiOverweight:
		return "Sobrepeso"
	default:
		return "Obesidade"
	}
}

// RGB is a simple 8-bit colour triple
type RGB struct {
	R, G, B int
}

// BMIColor returns the highlight colour used when printing a BMI value:
// black below 25, orange below 30, red otherwise.
func BMIColor(bmi float64) RGB {
	switch {
	case bmi < bmiNormal:
		return RGB{0, 0, 0}
	case bmi < bmiOverweight:
		return RGB{234, 88, 12}
	default:
		return RGB{220, 38, 38}
	}
}

// BMIBand is a stable identifier for the colour band, used as a CSS class
func BMIBand(bmi float64) string {
	switch {
	case bmi < bmiNormal:
		return "normal"
	case bmi < bmiOverweight:
		return "warning"
	default:
		return "danger"
	}
}
