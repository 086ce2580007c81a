package metadomain

// ErrorResponse representa a estrutura de erro da API do Meta
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contém os detalhes de erro da API do Meta
type ErrorDetails struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	IsTransient  bool   `json:"is_transient"`
	FBTraceID    string `json:"fbtrace_id"`
}

// IsTokenExpired verifica se o erro é de token expirado ou inválido
func (e *ErrorResponse) IsTokenExpired() bool {
	// O código 190 representa "token expirado" nas respostas da API do Meta
	// Possíveis subcódigos relacionados a problemas de token: 460, 463, 467
	return e.Error.Code == 190 ||
		(e.Error.Type == "OAuthException" && (e.Error.ErrorSubcode == 460 || e.Error.ErrorSubcode == 463 || e.Error.ErrorSubcode == 467))
}

// IsRateLimited identifica os códigos de limite de chamadas da Marketing API
func (e *ErrorResponse) IsRateLimited() bool {
	switch e.Error.Code {
	case 4, 17, 32, 613:
		return true
	}
	// 80000-80014: limites por caso de uso de negócio (ads_insights, ads_management...)
	return e.Error.Code >= 80000 && e.Error.Code <= 80014
}

// IsTransient indica falha temporária do lado do Meta (código 1 ou 2, ou is_transient).
func (e *ErrorResponse) IsTransient() bool {
	return e.Error.IsTransient || e.Error.Code == 1 || e.Error.Code == 2
}
