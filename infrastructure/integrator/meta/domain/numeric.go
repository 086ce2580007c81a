package metadomain

import (
	"bytes"
	"strconv"
)

// NumericString aceita número, texto numérico ou null e guarda o texto original.
// A Graph API devolve métricas como texto, mas nem sempre.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*n = ""
	case data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			*n = ""
			return nil
		}
		*n = NumericString(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*n = NumericString(data)
	default:
		*n = ""
	}
	return nil
}

func (n NumericString) String() string {
	return string(n)
}
