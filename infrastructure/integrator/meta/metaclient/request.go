package metaclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
	"golang.org/x/oauth2"
)

// fetchAll percorre paging.next até o fim e devolve todas as linhas.
func fetchAll[T any](ctx context.Context, c *MetaClient, accessToken, path string, params url.Values) ([]T, error) {
	next := fmt.Sprintf("%s/%s?%s", c.url, path, params.Encode())
	items := make([]T, 0)
	pages := 0

	for next != "" {
		var page metadomain.Page[T]
		if err := c.getJSON(ctx, accessToken, next, &page); err != nil {
			return nil, err
		}
		pages++

		items = append(items, page.Data...)

		if len(page.Data) == 0 || page.Paging.Next == next {
			break
		}
		next = page.Paging.Next
	}

	logrus.WithFields(logrus.Fields{
		"path":  path,
		"pages": pages,
		"rows":  len(items),
	}).Debug("Listagem paginada da API Meta concluída")

	return items, nil
}

// getJSON faz um GET autenticado. Limite de chamadas, falha temporária e erro
// de transporte dividem o mesmo orçamento de novas tentativas, com espera
// linear (tentativa × atraso base).
func (c *MetaClient) getJSON(ctx context.Context, accessToken, rawURL string, out any) error {
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(authCtx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	var body []byte
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			logrus.WithError(err).Error("Erro ao criar a requisição")
			return err
		}

		body, err = c.do(ctx, client, req)

		label := retryLabel(err)
		if label == "" {
			if err != nil {
				metrics.MetaRequestsTotal.WithLabelValues("error").Inc()
				return err
			}
			break
		}

		metrics.MetaRequestsTotal.WithLabelValues(label).Inc()
		if attempt >= c.rateLimitRetries {
			return err
		}

		wait := time.Duration(attempt+1) * c.rateLimitDelay
		logrus.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"wait":    wait.String(),
			"reason":  label,
			"error":   err.Error(),
		}).Warn("Falha repetível na API Meta, aguardando para tentar novamente")

		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}

	metrics.MetaRequestsTotal.WithLabelValues("success").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		logrus.WithError(err).Error("Erro ao decodificar JSON")
		return fmt.Errorf("erro ao decodificar resposta da API Meta: %w", err)
	}
	return nil
}

// errTransport marca falhas antes de haver resposta HTTP.
var errTransport = errors.New("meta: erro de transporte")

func (c *MetaClient) do(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: erro ao fazer a requisição: %w", errTransport, err)
	}
	defer resp.Body.Close()

	return HandleResponse(resp)
}

// retryLabel devolve o rótulo de métrica de uma falha repetível, ou vazio.
func retryLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, errTransport):
		return "transport"
	default:
		return ""
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
