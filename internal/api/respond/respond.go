// Package respond concentra a escrita de respostas JSON dos handlers.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// JSON escreve data com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro para a taxonomia HTTP e escreve o corpo padronizado.
// Erros 5xx são logados com a causa raiz; o cliente recebe apenas a mensagem genérica.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
	}

	JSON(w, log, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Details:  apperror.Details(err),
	})
}

// Decode lê o corpo JSON em v. Campos desconhecidos são rejeitados.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}

// Transition monta o corpo de resposta de uma transição de status.
func Transition(result domain.TransitionResult) domain.MessageResponse {
	if !result.Changed {
		return domain.MessageResponse{
			Message: fmt.Sprintf("Nenhuma alteração: já está em %s.", result.Status),
			Status:  result.Status,
		}
	}
	return domain.MessageResponse{
		Message: fmt.Sprintf("Status atualizado de %s para %s.", result.Previous, result.Status),
		Status:  result.Status,
	}
}
