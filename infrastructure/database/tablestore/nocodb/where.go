package nocodb

import (
	"fmt"
	"strings"

	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
)

var dateOperators = map[tablestore.Operator]string{
	tablestore.OpLt:  "lt",
	tablestore.OpGte: "ge",
	tablestore.OpLte: "le",
}

// BuildWhere traduz as condições para a sintaxe de filtro do NocoDB:
// (campo,op,valor)~and(campo,lt,exactDate,2024-01-01)
func BuildWhere(conds []tablestore.Condition) string {
	parts := make([]string, 0, len(conds))
	for _, cond := range conds {
		if part := buildCondition(cond); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "~and")
}

func buildCondition(cond tablestore.Condition) string {
	switch cond.Op {
	case tablestore.OpEq:
		return fmt.Sprintf("(%s,eq,%s)", cond.Field, tablestore.AsString(cond.Value))
	case tablestore.OpIn:
		if len(cond.Values) == 0 {
			return ""
		}
		options := make([]string, 0, len(cond.Values))
		for _, v := range cond.Values {
			options = append(options, fmt.Sprintf("(%s,eq,%s)", cond.Field, tablestore.AsString(v)))
		}
		if len(options) == 1 {
			return options[0]
		}
		return "(" + strings.Join(options, "~or") + ")"
	case tablestore.OpLt, tablestore.OpGte, tablestore.OpLte:
		op := dateOperators[cond.Op]
		if cond.Date {
			return fmt.Sprintf("(%s,%s,exactDate,%s)", cond.Field, op, tablestore.AsString(cond.Value))
		}
		return fmt.Sprintf("(%s,%s,%s)", cond.Field, op, tablestore.AsString(cond.Value))
	}
	return ""
}
