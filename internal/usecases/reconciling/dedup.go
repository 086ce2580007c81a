package reconciling

import "github.com/vfg2006/ads-insight-sync/internal/domain"

// Deduplicate mantém um snapshot por chave. Na colisão fica o de maior gasto;
// em empate fica o primeiro. A ordem de primeira aparição é preservada.
func Deduplicate(snapshots []*domain.InsightSnapshot) []*domain.InsightSnapshot {
	index := make(map[string]int, len(snapshots))
	out := make([]*domain.InsightSnapshot, 0, len(snapshots))

	for _, s := range snapshots {
		if s == nil {
			continue
		}

		key := s.Key
		if key == "" {
			key = s.BuildKey()
		}

		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, s)
			continue
		}

		if s.Spend > out[pos].Spend {
			out[pos] = s
		}
	}

	return out
}
