package tablestore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize converte os tipos devolvidos pelos diferentes backends para um
// conjunto pequeno: string, float64, bool ou nil. Datas sem hora viram YYYY-MM-DD.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}
	return v
}

func AsString(v any) string {
	switch t := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func AsFloat(v any) float64 {
	switch t := Normalize(v).(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

// Equal compara dois valores depois de normalizados. Nulo é igual ao valor
// zero do outro lado, já que backends diferentes devolvem NULL ou vazio.
func Equal(a, b any) bool {
	na, nb := Normalize(a), Normalize(b)

	if na == nil || nb == nil {
		return isZero(na) && isZero(nb)
	}

	fa, aIsNum := na.(float64)
	fb, bIsNum := nb.(float64)
	switch {
	case aIsNum && bIsNum:
		return math.Abs(fa-fb) < 1e-9
	case aIsNum:
		return math.Abs(fa-AsFloat(nb)) < 1e-9 && isNumeric(nb)
	case bIsNum:
		return math.Abs(AsFloat(na)-fb) < 1e-9 && isNumeric(na)
	}

	return AsString(na) == AsString(nb)
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

func isNumeric(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// Match avalia uma condição contra um registro.
func Match(cond Condition, rec Record) bool {
	value := rec.Get(cond.Field)

	switch cond.Op {
	case OpEq:
		return Equal(value, cond.Value)
	case OpIn:
		for _, candidate := range cond.Values {
			if Equal(value, candidate) {
				return true
			}
		}
		return false
	case OpLt:
		return value != nil && compare(value, cond.Value) < 0
	case OpGte:
		return value != nil && compare(value, cond.Value) >= 0
	case OpLte:
		return value != nil && compare(value, cond.Value) <= 0
	}
	return false
}

// MatchAll avalia todas as condições (AND).
func MatchAll(conds []Condition, rec Record) bool {
	for _, cond := range conds {
		if !Match(cond, rec) {
			return false
		}
	}
	return true
}

func compare(a, b any) int {
	na, nb := Normalize(a), Normalize(b)
	fa, aIsNum := na.(float64)
	fb, bIsNum := nb.(float64)
	if aIsNum && bIsNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(AsString(na), AsString(nb))
}
