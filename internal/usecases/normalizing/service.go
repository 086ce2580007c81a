package normalizing

import (
	"strings"
	"time"

	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

type Normalizer interface {
	Normalize(raw *domain.RawInsight, entity *domain.CatalogEntity) *domain.InsightSnapshot
}

type Options struct {
	// Mode é config.ResultModePriority (padrão) ou config.ResultModeStrict.
	Mode             string
	StrictActionType string
	Now              func() time.Time
}

type Service struct {
	strict           bool
	strictActionType string
	now              func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return New(Options{
		Mode:             cfg.Sync.ResultMode,
		StrictActionType: cfg.Sync.StrictActionType,
	})
}

func New(opts Options) *Service {
	strictActionType := opts.StrictActionType
	if strictActionType == "" {
		strictActionType = actionMessagingStarted7d
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		strict:           opts.Mode == config.ResultModeStrict,
		strictActionType: strictActionType,
		now:              now,
	}
}

// Normalize transforma a linha bruta no snapshot canônico. Os ids vêm da
// entidade (recortados pelo nível) e, na falta, da própria linha.
func (s *Service) Normalize(raw *domain.RawInsight, entity *domain.CatalogEntity) *domain.InsightSnapshot {
	campaignID, adSetID, adID := entity.ParentIDs()
	if campaignID == "" {
		campaignID = raw.CampaignID
	}
	if adSetID == "" && entity.Level != domain.LevelCampaign {
		adSetID = raw.AdSetID
	}

	snapshot := &domain.InsightSnapshot{
		OwnerID:      entity.OwnerID,
		AccountID:    entity.AccountID,
		CampaignID:   campaignID,
		AdSetID:      adSetID,
		AdID:         adID,
		Level:        entity.Level,
		DateStart:    raw.DateStart,
		CampaignName: pickName(raw.CampaignName, entity, domain.LevelCampaign),
		AdSetName:    pickName(raw.AdSetName, entity, domain.LevelAdSet),
		AdName:       pickName(raw.AdName, entity, domain.LevelAd),
		Objective:    firstNonEmpty(raw.Objective, entity.Objective),
		Status:       entity.Status,
		RawStatus:    entity.RawStatus,

		Spend:       money(toFloat(raw.Spend)),
		Impressions: toInt(raw.Impressions),
		Clicks:      toInt(raw.Clicks),
		Reach:       toInt(raw.Reach),
		Frequency:   toFloat(raw.Frequency),
		CTR:         toFloat(raw.CTR),
		CPC:         money(toFloat(raw.CPC)),
		CPM:         money(toFloat(raw.CPM)),

		RawActions:       raw.Actions,
		RawCostPerAction: raw.CostPerActionType,
		SyncedAt:         s.now().UTC(),
	}

	if snapshot.Status == "" {
		snapshot.Status = domain.SanitizeStatus(entity.RawStatus)
	}

	counts := indexActions(raw.Actions)
	costs := indexActions(raw.CostPerActionType)
	spend := toFloat(raw.Spend)

	snapshot.Actions = namedActions(counts, costs, spend)
	snapshot.Results, snapshot.CostPerResult, snapshot.ResultLabel = s.primaryResult(snapshot.Objective, counts, costs, spend, snapshot.Reach)

	snapshot.BuildKey()
	return snapshot
}

// primaryResult escolhe o resultado principal conforme o objetivo.
func (s *Service) primaryResult(objective string, counts, costs map[string]string, spend float64, reach int64) (int64, float64, string) {
	if s.strict {
		return resultFor(s.strictActionType, counts, costs, spend)
	}

	if IsReachObjective(objective) {
		if reach <= 0 {
			return 0, 0, ReachLabel
		}
		return reach, money(divide(spend, float64(reach)/1000)), ReachLabel
	}

	for _, candidate := range Candidates(objective) {
		if toInt(counts[candidate]) > 0 {
			return resultFor(candidate, counts, costs, spend)
		}
	}

	return 0, 0, ""
}

func resultFor(actionType string, counts, costs map[string]string, spend float64) (int64, float64, string) {
	results := toInt(counts[actionType])
	if results <= 0 {
		return 0, 0, actionType
	}
	return results, unitCost(costs[actionType], spend, results), actionType
}

// unitCost prefere o custo informado pela plataforma e cai para gasto/quantidade.
func unitCost(reported string, spend float64, count int64) float64 {
	if cost := toFloat(reported); cost > 0 {
		return money(cost)
	}
	return money(divide(spend, float64(count)))
}

func namedActions(counts, costs map[string]string, spend float64) map[domain.ActionName]domain.NamedAction {
	out := make(map[domain.ActionName]domain.NamedAction, len(domain.ActionNames))
	for _, name := range domain.ActionNames {
		actionType := domain.ActionTypes[name]
		count := toInt(counts[actionType])

		action := domain.NamedAction{Count: count}
		if count > 0 {
			action.CostPer = unitCost(costs[actionType], spend, count)
		}
		out[name] = action
	}
	return out
}

// indexActions mantém o primeiro valor de cada action_type.
func indexActions(actions []domain.RawAction) map[string]string {
	out := make(map[string]string, len(actions))
	for _, a := range actions {
		key := strings.TrimSpace(a.ActionType)
		if key == "" {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = a.Value
		}
	}
	return out
}

func pickName(fromRow string, entity *domain.CatalogEntity, level domain.InsightLevel) string {
	if fromRow != "" {
		return fromRow
	}
	if entity.Level == level {
		return entity.Name
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
