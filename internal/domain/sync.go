package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingWindow   = errors.New("since e until são obrigatórios na sincronização histórica")
	ErrInvalidWindow   = errors.New("since deve ser anterior ou igual a until")
	ErrMissingAccount  = errors.New("owner_id e account_id são obrigatórios")
	ErrAccountNotFound = errors.New("conta não encontrada")
)

// SyncRequest dispara uma sincronização. FullSync usa o preset "today" e o
// filtro de status mais amplo; caso contrário Since/Until são obrigatórios.
type SyncRequest struct {
	OwnerID   string     `json:"owner_id"`
	AccountID string     `json:"account_id"`
	Since     *time.Time `json:"since,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
	FullSync  bool       `json:"full_sync"`
}

func (r SyncRequest) Validate() error {
	if r.FullSync {
		return nil
	}
	if r.OwnerID == "" || r.AccountID == "" {
		return ErrMissingAccount
	}
	if r.Since == nil || r.Until == nil {
		return ErrMissingWindow
	}
	if r.Since.After(*r.Until) {
		return ErrInvalidWindow
	}
	return nil
}

// FetchWindow descreve o período pedido à plataforma. Preset tem prioridade.
type FetchWindow struct {
	Preset string
	Since  time.Time
	Until  time.Time
}

const DatePresetToday = "today"

func TodayWindow() FetchWindow {
	return FetchWindow{Preset: DatePresetToday}
}

func RangeWindow(since, until time.Time) FetchWindow {
	return FetchWindow{Since: since, Until: until}
}

func (w FetchWindow) IsPreset() bool {
	return w.Preset != ""
}

// AccountData agrupa tudo que foi buscado de uma conta numa execução.
type AccountData struct {
	Entities map[InsightLevel][]*CatalogEntity
	Insights map[InsightLevel][]RawInsight
}

func NewAccountData() *AccountData {
	return &AccountData{
		Entities: make(map[InsightLevel][]*CatalogEntity, len(Levels)),
		Insights: make(map[InsightLevel][]RawInsight, len(Levels)),
	}
}

type AccountState string

const (
	AccountStateFetching    AccountState = "FETCHING"
	AccountStateReconciling AccountState = "RECONCILING"
	AccountStateNormalizing AccountState = "NORMALIZING"
	AccountStateUpserting   AccountState = "UPSERTING"
	AccountStateCleanup     AccountState = "CLEANUP"
	AccountStateDone        AccountState = "DONE"
	AccountStateFailed      AccountState = "FAILED"
	AccountStateUpToDate    AccountState = "UP_TO_DATE"
)

// AccountResult é o resultado de uma conta dentro de uma execução.
type AccountResult struct {
	OwnerID     string       `json:"owner_id"`
	AccountID   string       `json:"account_id"`
	State       AccountState `json:"state"`
	FailedAt    AccountState `json:"failed_at,omitempty"`
	Inserted    int          `json:"inserted"`
	Updated     int          `json:"updated"`
	Unchanged   int          `json:"unchanged"`
	Failed      int          `json:"failed"`
	Archived    int          `json:"archived"`
	Deleted     int          `json:"deleted"`
	Recovered   int          `json:"recovered"`
	Error       string       `json:"error,omitempty"`
	CallsIssued bool         `json:"calls_issued"`
}

func (r *AccountResult) Succeeded() bool {
	return r.State == AccountStateDone || r.State == AccountStateUpToDate
}

// Processed conta os registros que chegaram à etapa de escrita.
func (r *AccountResult) Processed() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed
}

type SyncStatus string

const (
	SyncStatusSuccess      SyncStatus = "success"
	SyncStatusPartialError SyncStatus = "partial_error"
	SyncStatusError        SyncStatus = "error"
)

type SyncType string

const (
	SyncTypeFull       SyncType = "full"
	SyncTypeHistorical SyncType = "historical"
)

// SyncLog é a linha de auditoria gravada a cada execução.
type SyncLog struct {
	ID                string          `json:"id"`
	RunID             string          `json:"run_id"`
	Type              SyncType        `json:"type"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
	RecordsProcessed  int             `json:"records_processed"`
	Status            SyncStatus      `json:"status"`
	ErrorText         string          `json:"error_text,omitempty"`
	AccountsSucceeded int             `json:"accounts_succeeded"`
	AccountsFailed    int             `json:"accounts_failed"`
	Accounts          []AccountResult `json:"accounts,omitempty"`
}
