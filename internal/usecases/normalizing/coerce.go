package normalizing

import (
	"math"
	"strconv"
	"strings"

	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

// toFloat nunca falha: nulo, texto inválido, NaN, infinito e negativo viram 0.
func toFloat(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	return utils.NonNegative(v)
}

func toInt(raw string) int64 {
	v := toFloat(raw)
	if v >= math.MaxInt64 {
		return 0
	}
	return int64(math.Round(v))
}

func money(v float64) float64 {
	return utils.RoundWithTwoDecimalPlace(utils.NonNegative(v))
}

func divide(numerator, denominator float64) float64 {
	return utils.SafeDivide(numerator, denominator)
}
