package domain

import "strings"

type EntityStatus string

const (
	EntityStatusActive EntityStatus = "ACTIVE"
	EntityStatusPaused EntityStatus = "PAUSED"
)

// SanitizeStatus reduz o status da plataforma para ACTIVE ou PAUSED.
// Qualquer valor diferente de "ACTIVE", inclusive vazio, vira PAUSED.
func SanitizeStatus(raw string) EntityStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(EntityStatusActive)) {
		return EntityStatusActive
	}
	return EntityStatusPaused
}

// IsArchivedStatus indica se o status bruto manda o registro para a tabela de arquivo.
func IsArchivedStatus(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ARCHIVED", "DELETED":
		return true
	}
	return false
}
