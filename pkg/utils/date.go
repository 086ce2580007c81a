package utils

import "time"

// ParseDate lê uma data YYYY-MM-DD. Texto vazio devolve nil sem erro.
func ParseDate(dateStr string) (*time.Time, error) {
	if dateStr == "" {
		return nil, nil
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return nil, err
	}

	return &date, nil
}
