// Package memory implementa tablestore.Store em memória, usado em testes e
// execução local.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

type Option func(*Store)

// WithUniqueField faz o armazenamento recusar inserções duplicadas no campo,
// devolvendo tablestore.ErrConflict como o armazenamento remoto faz.
func WithUniqueField(table, field string) Option {
	return func(s *Store) {
		s.unique[table] = field
	}
}

// CallStats conta as chamadas recebidas por operação.
type CallStats struct {
	List   int
	Insert int
	Update int
	Delete int
}

type table struct {
	rows  map[string]tablestore.Record
	order []string
}

type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	unique map[string]string
	calls  CallStats
}

func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		unique: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[string]tablestore.Record)}
		s.tables[name] = t
	}
	return t
}

func (s *Store) List(_ context.Context, name string, query tablestore.Query) ([]tablestore.Record, error) {
	s.mu.Lock()
	s.calls.List++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return []tablestore.Record{}, nil
	}

	result := make([]tablestore.Record, 0)
	for _, id := range t.order {
		rec := t.rows[id]
		if !tablestore.MatchAll(query.Where, rec) {
			continue
		}
		result = append(result, project(rec, query.Fields))
	}

	if query.Sort != "" {
		field := strings.TrimPrefix(query.Sort, "-")
		desc := strings.HasPrefix(query.Sort, "-")
		sort.SliceStable(result, func(i, j int) bool {
			a, b := result[i].String(field), result[j].String(field)
			if desc {
				return a > b
			}
			return a < b
		})
	}

	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}

	return result, nil
}

func (s *Store) Insert(_ context.Context, name string, records []tablestore.Record) ([]tablestore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Insert++

	t := s.table(name)

	if field, ok := s.unique[name]; ok {
		seen := make(map[string]struct{}, len(records))
		for _, rec := range records {
			value := tablestore.AsString(rec.Fields[field])
			if _, dup := seen[value]; dup {
				return nil, fmt.Errorf("%w: %s=%s", tablestore.ErrConflict, field, value)
			}
			seen[value] = struct{}{}
			for _, existing := range t.rows {
				if existing.String(field) == value {
					return nil, fmt.Errorf("%w: %s=%s", tablestore.ErrConflict, field, value)
				}
			}
		}
	}

	created := make([]tablestore.Record, 0, len(records))
	for _, rec := range records {
		id, err := s.newID(t)
		if err != nil {
			return nil, err
		}

		stored := tablestore.Record{ID: id, Fields: clone(rec.Fields)}
		t.rows[id] = stored
		t.order = append(t.order, id)
		created = append(created, tablestore.Record{ID: id, Fields: clone(rec.Fields)})
	}

	return created, nil
}

func (s *Store) Update(_ context.Context, name string, records []tablestore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Update++

	t := s.table(name)
	for _, rec := range records {
		if _, ok := t.rows[rec.ID]; !ok {
			return fmt.Errorf("%w: %s/%s", tablestore.ErrNotFound, name, rec.ID)
		}
	}

	for _, rec := range records {
		stored := t.rows[rec.ID]
		for k, v := range rec.Fields {
			stored.Fields[k] = v
		}
	}

	return nil
}

func (s *Store) Delete(_ context.Context, name string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Delete++

	t := s.table(name)
	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := t.rows[id]; ok {
			delete(t.rows, id)
			remove[id] = struct{}{}
		}
	}

	order := t.order[:0]
	for _, id := range t.order {
		if _, gone := remove[id]; !gone {
			order = append(order, id)
		}
	}
	t.order = order

	return nil
}

// Calls devolve um retrato das chamadas recebidas até agora.
func (s *Store) Calls() CallStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Len devolve o número de linhas da tabela.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return len(t.rows)
	}
	return 0
}

func (s *Store) newID(t *table) (string, error) {
	for {
		id, err := utils.GenerateRecordID()
		if err != nil {
			return "", err
		}
		if _, exists := t.rows[id]; !exists {
			return id, nil
		}
	}
}

func project(rec tablestore.Record, fields []string) tablestore.Record {
	if len(fields) == 0 {
		return tablestore.Record{ID: rec.ID, Fields: clone(rec.Fields)}
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := rec.Fields[f]; ok {
			out[f] = v
		}
	}
	return tablestore.Record{ID: rec.ID, Fields: out}
}

func clone(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
