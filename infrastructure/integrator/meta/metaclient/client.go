package metaclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	metadomain "github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrRateLimited é devolvido quando as novas tentativas após limite de chamadas se esgotam.
	ErrRateLimited = errors.New("meta: limite de requisições atingido")
	// ErrInvalidCredential indica token expirado ou revogado; a conta não pode ser sincronizada.
	ErrInvalidCredential = errors.New("meta: credencial inválida ou expirada")
	// ErrTransient cobre 5xx e erros marcados como temporários pela API.
	ErrTransient = errors.New("meta: falha temporária")
)

//go:generate mockgen -source=client.go -destination=mocks/client.go -package=mocks
type Client interface {
	ListEntities(ctx context.Context, accessToken, accountID string, level domain.InsightLevel) ([]metadomain.Entity, error)
	ListInsights(ctx context.Context, accessToken, accountID string, level domain.InsightLevel, window domain.FetchWindow) ([]metadomain.InsightRow, error)
}

type Options struct {
	URL              string
	PageSize         int
	RequestsPerSec   float64
	RateLimitRetries int
	RateLimitDelay   time.Duration
	HTTPClient       *http.Client
}

type MetaClient struct {
	url              string
	pageSize         int
	limiter          *rate.Limiter
	rateLimitRetries int
	rateLimitDelay   time.Duration
	httpClient       *http.Client
}

func NewClient(cfg *config.Config) Client {
	return NewClientWithOptions(Options{
		URL:              cfg.Meta.URL,
		PageSize:         cfg.Meta.PageSize,
		RequestsPerSec:   cfg.Meta.RequestsPerSec,
		RateLimitRetries: cfg.Meta.RateLimitRetries,
		RateLimitDelay:   cfg.Meta.RateLimitDelay,
		HTTPClient:       &http.Client{Timeout: cfg.Meta.Timeout},
	})
}

func NewClientWithOptions(opts Options) *MetaClient {
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}

	retries := opts.RateLimitRetries
	if retries < 0 {
		retries = 0
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &MetaClient{
		url:              strings.TrimRight(opts.URL, "/"),
		pageSize:         pageSize,
		limiter:          rate.NewLimiter(limit, 1),
		rateLimitRetries: retries,
		rateLimitDelay:   opts.RateLimitDelay,
		httpClient:       httpClient,
	}
}

// graphAccountID garante o prefixo act_ exigido pelos endpoints de conta.
func graphAccountID(accountID string) string {
	if strings.HasPrefix(accountID, "act_") {
		return accountID
	}
	return "act_" + accountID
}
