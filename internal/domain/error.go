package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int         `json:"code" example:"400"`
	Category string      `json:"category" example:"VALIDATION_ERROR"`
	Message  string      `json:"message" example:"Estoque insuficiente para concluir a entrega."`
	Details  interface{} `json:"details,omitempty"`
}

// MessageResponse é o corpo de respostas de operação sem entidade.
type MessageResponse struct {
	Message string `json:"message" example:"Status atualizado."`
	Status  Status `json:"status,omitempty" example:"ready"`
}
