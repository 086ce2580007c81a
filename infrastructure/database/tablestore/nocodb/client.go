// Package nocodb implementa tablestore.Store sobre a API REST v2 do NocoDB.
package nocodb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const idField = "Id"

type Options struct {
	BaseURL    string
	Token      string
	TableIDs   map[string]string
	HTTPClient *http.Client
	PageSize   int
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type Client struct {
	baseURL    string
	token      string
	tableIDs   map[string]string
	httpClient *http.Client
	pageSize   int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:      opts.Token,
		tableIDs:   opts.TableIDs,
		httpClient: httpClient,
		pageSize:   pageSize,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

type listResponse struct {
	List     []map[string]any `json:"list"`
	PageInfo struct {
		TotalRows  int  `json:"totalRows"`
		Page       int  `json:"page"`
		PageSize   int  `json:"pageSize"`
		IsLastPage bool `json:"isLastPage"`
	} `json:"pageInfo"`
}

type errorResponse struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) recordsURL(table string) (string, error) {
	tableID, ok := c.tableIDs[table]
	if !ok || tableID == "" {
		return "", errors.Wrapf(tablestore.ErrUnknownTable, "nocodb: %s", table)
	}
	return fmt.Sprintf("%s/api/v2/tables/%s/records", c.baseURL, tableID), nil
}

func (c *Client) List(ctx context.Context, table string, query tablestore.Query) ([]tablestore.Record, error) {
	endpoint, err := c.recordsURL(table)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if where := BuildWhere(query.Where); where != "" {
		params.Set("where", where)
	}
	if len(query.Fields) > 0 {
		params.Set("fields", strings.Join(append([]string{idField}, query.Fields...), ","))
	}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}

	records := make([]tablestore.Record, 0)
	offset := 0
	for {
		limit := c.pageSize
		if query.Limit > 0 && query.Limit-len(records) < limit {
			limit = query.Limit - len(records)
		}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))

		body, err := c.do(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, errors.Wrap(err, "nocodb: erro ao decodificar listagem")
		}

		for _, row := range page.List {
			records = append(records, fromRow(row))
		}

		offset += len(page.List)
		if page.PageInfo.IsLastPage || len(page.List) < limit {
			break
		}
		if query.Limit > 0 && len(records) >= query.Limit {
			break
		}
	}

	return records, nil
}

func (c *Client) Insert(ctx context.Context, table string, records []tablestore.Record) ([]tablestore.Record, error) {
	if len(records) == 0 {
		return []tablestore.Record{}, nil
	}

	endpoint, err := c.recordsURL(table)
	if err != nil {
		return nil, err
	}

	payload := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		payload = append(payload, rec.Fields)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var ids []map[string]any
	if err := json.Unmarshal(body, &ids); err != nil {
		// registro único pode voltar como objeto
		var single map[string]any
		if errSingle := json.Unmarshal(body, &single); errSingle != nil {
			return nil, errors.Wrap(err, "nocodb: erro ao decodificar resposta da inserção")
		}
		ids = []map[string]any{single}
	}

	created := make([]tablestore.Record, 0, len(records))
	for i, rec := range records {
		id := ""
		if i < len(ids) {
			id = tablestore.AsString(ids[i][idField])
		}
		created = append(created, tablestore.Record{ID: id, Fields: rec.Fields})
	}

	return created, nil
}

func (c *Client) Update(ctx context.Context, table string, records []tablestore.Record) error {
	if len(records) == 0 {
		return nil
	}

	endpoint, err := c.recordsURL(table)
	if err != nil {
		return err
	}

	payload := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			row[k] = v
		}
		row[idField] = rowID(rec.ID)
		payload = append(payload, row)
	}

	_, err = c.do(ctx, http.MethodPatch, endpoint, payload)
	return err
}

func (c *Client) Delete(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	endpoint, err := c.recordsURL(table)
	if err != nil {
		return err
	}

	payload := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		payload = append(payload, map[string]any{idField: rowID(id)})
	}

	_, err = c.do(ctx, http.MethodDelete, endpoint, payload)
	return err
}

// do envia a requisição repetindo falhas temporárias. POST só é repetido em 429:
// erro de transporte ou 5xx numa inserção vira ErrAmbiguousWrite.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "nocodb: erro ao codificar payload")
		}
		bodyBytes = encoded
	}

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("xc-token", c.token)
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if method == http.MethodPost {
				// o servidor pode ter gravado antes de a resposta se perder
				return nil, errors.Wrapf(tablestore.ErrAmbiguousWrite, "nocodb: %s %s: %v", method, endpoint, err)
			}
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, errors.Wrapf(err, "nocodb: %s %s", method, endpoint)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return respBody, nil
		}

		if resp.StatusCode >= 500 && method == http.MethodPost {
			return nil, errors.Wrapf(tablestore.ErrAmbiguousWrite, "nocodb: status=%d", resp.StatusCode)
		}

		// 429 recusa a requisição antes de processá-la, então até POST pode repetir
		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.maxRetries {
			logrus.WithFields(logrus.Fields{
				"status_code": resp.StatusCode,
				"attempt":     attempt + 1,
			}).Debug("NocoDB respondeu com erro temporário, tentando novamente")

			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		return nil, statusError(resp.StatusCode, respBody)
	}
}

func statusError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil {
		for _, candidate := range []string{parsed.Msg, parsed.Message, parsed.Error} {
			if strings.TrimSpace(candidate) != "" {
				message = candidate
				break
			}
		}
	}

	switch {
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return errors.Wrapf(tablestore.ErrConflict, "nocodb: status=%d message=%s", status, message)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "duplicate"):
		return errors.Wrapf(tablestore.ErrConflict, "nocodb: status=%d message=%s", status, message)
	case status == http.StatusNotFound:
		return errors.Wrapf(tablestore.ErrNotFound, "nocodb: message=%s", message)
	}

	return fmt.Errorf("nocodb: falha na requisição: status=%d message=%s", status, message)
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
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

func fromRow(row map[string]any) tablestore.Record {
	rec := tablestore.Record{Fields: make(map[string]any, len(row))}
	for k, v := range row {
		if k == idField {
			rec.ID = tablestore.AsString(v)
			continue
		}
		rec.Fields[k] = v
	}
	return rec
}

// rowID envia ids numéricos como número, que é o que a API espera para a chave primária padrão.
func rowID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
