package move

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/moveservice"
)

// MoveService é o agregador de histórico.
type MoveService interface {
	ListMoves(ctx context.Context, q moveservice.MoveQuery) ([]domain.Move, error)
	Statistics(ctx context.Context) (domain.MoveStatistics, error)
	Details(ctx context.Context, moveType, id string) (domain.MoveDetails, error)
}

// StatusSetter aplica uma mudança explícita de status.
type StatusSetter interface {
	SetStatus(ctx context.Context, kind domain.MoveKind, id string, target domain.Status) (domain.TransitionResult, error)
}

// Handler expõe o histórico de movimentações.
type Handler struct {
	Moves    MoveService
	Workflow StatusSetter
	Logger   logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(moves MoveService, workflow StatusSetter, log logger.Logger) *Handler {
	return &Handler{Moves: moves, Workflow: workflow, Logger: log}
}

// Routes monta as rotas do histórico.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListMovesHandler)
	r.Get("/statistics", h.StatisticsHandler)
	r.Get("/{type}/{id}", h.DetailsHandler)
	r.Put("/{type}/{id}/status", h.SetStatusHandler)
}

// ListMovesHandler lista o histórico unificado.
// @Summary Histórico de movimentações
// @Description Linhas de recebimentos, entregas e transferências, mais recentes primeiro.
// @Tags moves
// @Produce json
// @Param reference query string false "Trecho da referência"
// @Param contact query string false "Trecho do parceiro"
// @Param status query string false "draft, ready, in_transit ou done"
// @Param move_type query string false "receipt, delivery ou transfer"
// @Param from_date query string false "Data inicial (YYYY-MM-DD)"
// @Param to_date query string false "Data final (YYYY-MM-DD)"
// @Success 200 {array} domain.Move
// @Failure 400 {object} domain.ErrorResponse
// @Router /moves [get]
func (h *Handler) ListMovesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	moves, err := h.Moves.ListMoves(r.Context(), moveservice.MoveQuery{
		Reference: q.Get("reference"),
		Contact:   q.Get("contact"),
		Status:    q.Get("status"),
		MoveType:  q.Get("move_type"),
		FromDate:  q.Get("from_date"),
		ToDate:    q.Get("to_date"),
	})
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, moves)
}

// StatisticsHandler devolve os totais do dashboard.
// @Summary Estatísticas de movimentações
// @Tags moves
// @Produce json
// @Success 200 {object} domain.MoveStatistics
// @Router /moves/statistics [get]
func (h *Handler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Moves.Statistics(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, stats)
}

// DetailsHandler devolve o detalhe de uma movimentação.
// @Summary Detalhe de uma movimentação
// @Tags moves
// @Produce json
// @Param type path string true "receipt, delivery ou transfer"
// @Param id path string true "ID"
// @Success 200 {object} domain.MoveDetails
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /moves/{type}/{id} [get]
func (h *Handler) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.Moves.Details(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, details)
}

// SetStatusHandler aplica uma mudança explícita de status.
// Só é aceito o próximo status do workflow; repetir o atual não altera nada.
// @Summary Altera o status de uma movimentação
// @Tags moves
// @Accept json
// @Produce json
// @Param type path string true "receipt, delivery ou transfer"
// @Param id path string true "ID"
// @Param status body domain.StatusChangeRequest true "Status desejado"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /moves/{type}/{id}/status [put]
func (h *Handler) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseMoveKind(chi.URLParam(r, "type"))
	if !ok {
		respond.Error(w, r, h.Logger, apperror.NewValidationError(fmt.Sprintf("Tipo de movimentação inválido: %q.", chi.URLParam(r, "type"))))
		return
	}

	var req domain.StatusChangeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Workflow.SetStatus(r.Context(), kind, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, respond.Transition(result))
}
