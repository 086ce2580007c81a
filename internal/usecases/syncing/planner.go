package syncing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

// Plan é o resultado do diff entre o período pedido e as datas já gravadas.
type Plan struct {
	Requested []string
	Missing   []string
	Window    domain.FetchWindow

	missing map[string]struct{}
}

// Skip indica que todas as datas já existem e nenhuma chamada externa é necessária.
func (p Plan) Skip() bool {
	return len(p.Missing) == 0
}

// Keep diz se uma linha devolvida pela plataforma deve ser mantida. A janela
// é contínua, então datas já gravadas dentro dela são descartadas aqui.
func (p Plan) Keep(date string) bool {
	_, ok := p.missing[date]
	return ok
}

type Planner struct {
	snapshots repository.SnapshotRepository
}

func NewPlanner(snapshots repository.SnapshotRepository) *Planner {
	return &Planner{
		snapshots: snapshots,
	}
}

// Plan calcula as datas faltantes de [since, until] para o par dono/conta e
// estreita a janela para [min(faltantes), max(faltantes)].
func (p *Planner) Plan(ctx context.Context, ownerID, accountID string, since, until time.Time) (Plan, error) {
	requested := EnumerateDates(since, until)
	if len(requested) == 0 {
		return Plan{}, domain.ErrInvalidWindow
	}

	existing, err := p.snapshots.ListDates(ctx, ownerID, accountID, requested[0], requested[len(requested)-1])
	if err != nil {
		return Plan{}, fmt.Errorf("erro ao consultar datas existentes: %w", err)
	}

	plan := Plan{
		Requested: requested,
		missing:   make(map[string]struct{}),
	}

	for _, date := range requested {
		if _, ok := existing[date]; ok {
			continue
		}
		plan.Missing = append(plan.Missing, date)
		plan.missing[date] = struct{}{}
	}

	if plan.Skip() {
		return plan, nil
	}

	sort.Strings(plan.Missing)
	first, _ := time.Parse(time.DateOnly, plan.Missing[0])
	last, _ := time.Parse(time.DateOnly, plan.Missing[len(plan.Missing)-1])
	plan.Window = domain.RangeWindow(first, last)

	return plan, nil
}

// EnumerateDates lista os dias de since até until, inclusive, em YYYY-MM-DD.
func EnumerateDates(since, until time.Time) []string {
	start := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]string, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(time.DateOnly))
	}
	return dates
}
