package tablestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a    any
		b    any
		want bool
	}{
		{name: "inteiro e float iguais", a: int64(10), b: 10.0, want: true},
		{name: "texto numérico e número", a: "12.5", b: 12.5, want: true},
		{name: "nulo e vazio", a: nil, b: "", want: true},
		{name: "nulo e zero", a: nil, b: 0, want: true},
		{name: "nulo e valor", a: nil, b: "x", want: false},
		{name: "data do postgres e texto", a: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), b: "2024-01-02", want: true},
		{name: "bytes e texto", a: []byte("abc"), b: "abc", want: true},
		{name: "textos diferentes", a: "ACTIVE", b: "PAUSED", want: false},
		{name: "texto não numérico e número", a: "abc", b: 0.0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestMatchAll(t *testing.T) {
	rec := Record{ID: "1", Fields: map[string]any{
		"owner_id":   "own",
		"account_id": "123",
		"date_start": "2024-01-05",
		"spend":      12.3,
	}}

	tests := []struct {
		name  string
		conds []Condition
		want  bool
	}{
		{name: "sem condições", want: true},
		{name: "igualdade", conds: []Condition{Eq("owner_id", "own"), Eq("account_id", "123")}, want: true},
		{name: "igualdade falha", conds: []Condition{Eq("owner_id", "other")}, want: false},
		{name: "in", conds: []Condition{In("account_id", "9", "123")}, want: true},
		{name: "antes da data", conds: []Condition{Before("date_start", "2024-01-06")}, want: true},
		{name: "não é antes da própria data", conds: []Condition{Before("date_start", "2024-01-05")}, want: false},
		{name: "janela fechada", conds: []Condition{OnOrAfter("date_start", "2024-01-05"), OnOrBefore("date_start", "2024-01-05")}, want: true},
		{name: "campo ausente em comparação", conds: []Condition{Before("missing", "2024-01-06")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchAll(tt.conds, rec))
		})
	}
}
