package utils

import "math"

// RoundWithTwoDecimalPlace arredonda para centavos. NaN e infinito viram 0.
func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return math.Round(f*100) / 100
}

// SafeDivide devolve 0 quando o divisor não é positivo.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// NonNegative troca negativos, NaN e infinito por 0.
func NonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
