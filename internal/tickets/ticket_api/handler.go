package ticket_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type TicketOps interface {
	Generate(ctx context.Context, orderNumber string) ([]models.Ticket, error)
	Scan(ctx context.Context, code string) (*models.ScanResult, error)
}

type Handler struct {
	Tickets TicketOps
	Logger  *logger.Logger
}

func NewHandler(tickets TicketOps, log *logger.Logger) *Handler {
	return &Handler{Tickets: tickets, Logger: log}
}

// Routes mounts the ticket endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders/{orderNumber}/tickets", h.GenerateTickets)
	r.Post("/scan", h.ScanTicket)
}

func (h *Handler) GenerateTickets(w http.ResponseWriter, r *http.Request) {
	orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	if orderNumber == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Order number required"))
		return
	}

	tickets, err := h.Tickets.Generate(r.Context(), orderNumber)
	if err != nil {
		var (
			nfErr *models.NotFoundError
			isErr *models.InvalidStateError
		)
		switch {
		case errors.As(err, &nfErr):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(nfErr.Error()))
		case errors.As(err, &isErr):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(isErr.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("GenerateTickets: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to generate tickets"))
		}
		return
	}

	codes := make([]string, len(tickets))
	for i, t := range tickets {
		codes[i] = t.TicketNumber
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tickets generated successfully", map[string]interface{}{
		"tickets":  codes,
		"quantity": len(codes),
	}))
}

// ScanTicket validates and consumes a ticket code at the gate. Business-rule
// rejections respond with HTTP 200 and status "error": the scanner client
// only inspects the body.
func (h *Handler) ScanTicket(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid JSON data"))
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Ticket code missing"))
		return
	}

	result, err := h.Tickets.Scan(r.Context(), code)
	if err != nil {
		h.writeScanRejection(w, code, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("TICKET VALID! Welcome in.", result))
}

func (h *Handler) writeScanRejection(w http.ResponseWriter, code string, err error) {
	var (
		nfErr *models.NotFoundError
		nvErr *models.OrderNotVerifiedError
		auErr *models.AlreadyUsedError
		tiErr *models.TicketInactiveError
	)
	switch {
	case errors.As(err, &nfErr):
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse("TICKET CODE NOT FOUND!"))
	case errors.As(err, &nvErr):
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse(
			fmt.Sprintf("Ticket not verified yet! (Status: %s)", nvErr.OrderStatus)))
	case errors.As(err, &auErr):
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse(
			fmt.Sprintf("TICKET ALREADY USED!\nUsed at: %s", auErr.CheckedInAt.Format("02 Jan 2006 15:04"))))
	case errors.As(err, &tiErr):
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse(
			fmt.Sprintf("Ticket status: %s", tiErr.Status)))
	default:
		h.Logger.Error("API", fmt.Sprintf("ScanTicket %s: %v", code, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Database error"))
	}
}
