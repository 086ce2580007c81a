// Package tablestore define o contrato mínimo do armazenamento tabular remoto:
// listagem filtrada, inserção em lote, atualização de campos em lote e
// remoção por id. O armazenamento não oferece upsert nem unicidade; quem
// garante uma linha por chave natural é o motor de upsert.
package tablestore

import (
	"context"
	"errors"
)

const (
	TableInsights        = "insights"
	TableInsightsArchive = "insights_archive"
	TableCampaigns       = "campaigns"
	TableAdSets          = "adsets"
	TableAds             = "ads"
	TableSyncLogs        = "sync_logs"
	TableAccounts        = "ad_accounts"
)

// Tables lista todas as tabelas lógicas conhecidas pelo sistema.
var Tables = []string{
	TableInsights,
	TableInsightsArchive,
	TableCampaigns,
	TableAdSets,
	TableAds,
	TableSyncLogs,
	TableAccounts,
}

var (
	// ErrConflict indica que o armazenamento recusou a inserção por duplicidade (409/422).
	ErrConflict     = errors.New("tablestore: conflito ao inserir registro")
	ErrNotFound     = errors.New("tablestore: registro não encontrado")
	ErrUnknownTable = errors.New("tablestore: tabela desconhecida")
	// ErrAmbiguousWrite indica inserção sem resposta confiável: as linhas podem
	// ou não ter sido gravadas. Quem chama deve consultar pela chave antes de repetir.
	ErrAmbiguousWrite = errors.New("tablestore: resultado da inserção desconhecido")
)

// Record é uma linha do armazenamento. ID é atribuído pelo armazenamento na inserção.
type Record struct {
	ID     string
	Fields map[string]any
}

func NewRecord(fields map[string]any) Record {
	return Record{Fields: fields}
}

// Get devolve o campo já normalizado.
func (r Record) Get(field string) any {
	if r.Fields == nil {
		return nil
	}
	return Normalize(r.Fields[field])
}

func (r Record) String(field string) string {
	return AsString(r.Get(field))
}

func (r Record) Float(field string) float64 {
	return AsFloat(r.Get(field))
}

type Operator string

const (
	OpEq  Operator = "eq"
	OpIn  Operator = "in"
	OpLt  Operator = "lt"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

// Condition é um predicado sobre um campo. Date marca comparações de data
// no formato YYYY-MM-DD.
type Condition struct {
	Field  string
	Op     Operator
	Value  any
	Values []any
	Date   bool
}

func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpIn, Values: values}
}

func Before(field, date string) Condition {
	return Condition{Field: field, Op: OpLt, Value: date, Date: true}
}

func OnOrAfter(field, date string) Condition {
	return Condition{Field: field, Op: OpGte, Value: date, Date: true}
}

func OnOrBefore(field, date string) Condition {
	return Condition{Field: field, Op: OpLte, Value: date, Date: true}
}

// Query é a listagem filtrada. Todas as condições são combinadas com AND.
// Limit zero significa sem limite.
type Query struct {
	Where  []Condition
	Fields []string
	Sort   string
	Limit  int
}

type Store interface {
	List(ctx context.Context, table string, query Query) ([]Record, error)
	Insert(ctx context.Context, table string, records []Record) ([]Record, error)
	Update(ctx context.Context, table string, records []Record) error
	Delete(ctx context.Context, table string, ids []string) error
}
