package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperror "stockflow/internal/errors"
)

// Códigos SQLSTATE usados pela aplicação.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidTextRepr     = "22P02"
)

// MapError traduz erros do driver pq para a taxonomia de erros da aplicação.
// Erros sem correspondência viram InternalError (DB).
func MapError(msg string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return apperror.NewDBError(msg, err)
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return apperror.NewConflictError(fmt.Sprintf("%s: registro duplicado (%s)", msg, pqErr.Constraint))
	case codeForeignKeyViolation:
		return apperror.NewNotFoundError(fmt.Sprintf("%s: referência inexistente (%s)", msg, pqErr.Constraint))
	case codeCheckViolation:
		return apperror.NewValidationError(fmt.Sprintf("%s: violação da restrição %s", msg, pqErr.Constraint))
	case codeInvalidTextRepr:
		return apperror.NewValidationError(fmt.Sprintf("%s: valor com formato inválido", msg))
	default:
		return apperror.NewDBError(msg, err)
	}
}

// IsForeignKeyViolation informa se o erro é uma violação de chave estrangeira.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation
}
