package order_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderOps interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, statusFilter string) (*models.OrderListing, error)
	AttachProof(ctx context.Context, orderNumber, fileName, fileURL string) (*models.Order, error)
	ClearProof(ctx context.Context, orderNumber string) (bool, error)
	Decide(ctx context.Context, orderNumber, decision, adminName, notes string) (*models.Order, error)
}

type ProofSaver interface {
	Save(fileName string, r io.Reader) (string, string, error)
}

type Handler struct {
	Orders    OrderOps
	Proofs    ProofSaver
	Logger    *logger.Logger
	MaxUpload int64
}

func NewHandler(orders OrderOps, proofs ProofSaver, maxUpload int64, log *logger.Logger) *Handler {
	return &Handler{
		Orders:    orders,
		Proofs:    proofs,
		Logger:    log,
		MaxUpload: maxUpload,
	}
}

// Routes mounts the order endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderNumber}", h.GetOrder)
	r.Post("/orders/{orderNumber}/proof", h.UploadProof)
	r.Post("/orders/{orderNumber}/proof/clear", h.ClearProof)
	r.Post("/orders/{orderNumber}/decision", h.Decide)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid JSON data"))
		return
	}

	order, err := h.Orders.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order saved successfully", map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"quantity":    order.Quantity,
		"ticketPrice": order.TicketPrice,
		"adminFee":    order.AdminFee,
		"total":       order.Total,
		"status":      order.Status,
	}))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	order, err := h.Orders.GetOrder(r.Context(), orderNumber)
	if err != nil {
		h.writeError(w, "GetOrder", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")

	listing, err := h.Orders.ListOrders(r.Context(), statusFilter)
	if err != nil {
		h.writeError(w, "ListOrders", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", listing))
}

var allowedProofExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("No file uploaded"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > h.MaxUpload {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("File too large (max 2MB)"))
		return
	}
	if !allowedProofExts[strings.ToLower(filepath.Ext(header.Filename))] {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid file type"))
		return
	}

	storedName, fileURL, err := h.Proofs.Save(header.Filename, file)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadProof: failed to save file: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to save file"))
		return
	}

	order, err := h.Orders.AttachProof(r.Context(), orderNumber, storedName, fileURL)
	if err != nil {
		h.writeError(w, "UploadProof", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("File uploaded", map[string]interface{}{
		"fileName": storedName,
		"fileUrl":  fileURL,
		"status":   order.Status,
	}))
}

func (h *Handler) ClearProof(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	deleted, err := h.Orders.ClearProof(r.Context(), orderNumber)
	if err != nil {
		h.writeError(w, "ClearProof", err)
		return
	}

	message := "Proof cleared (file missing or already deleted)"
	if deleted {
		message = "Proof deleted and cleared"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, map[string]interface{}{
		"orderNumber": orderNumber,
		"deleted":     deleted,
	}))
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid JSON data"))
		return
	}

	order, err := h.Orders.Decide(r.Context(), orderNumber, req.Decision, req.AdminName, req.Notes)
	if err != nil {
		// A committed decision with failed ticket issuance still reports
		// the new status; the operator retries generation separately.
		if order != nil {
			h.Logger.Warn("API", fmt.Sprintf("Decide: %v", err))
			utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(
				"Order approved but ticket generation failed, retry ticket generation",
				map[string]interface{}{
					"orderNumber": order.OrderNumber,
					"newStatus":   order.Status,
				}))
			return
		}
		h.writeError(w, "Decide", err)
		return
	}

	message := "Order rejected successfully"
	if order.Status == models.StatusVerified {
		message = "Order approved successfully"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"newStatus":   order.Status,
	}))
}

// writeError maps the service error taxonomy to HTTP codes. Store failures
// are reported as a generic database error so internals never leak to the
// client.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		vErr  *models.ValidationError
		nfErr *models.NotFoundError
		isErr *models.InvalidStateError
	)
	switch {
	case errors.As(err, &vErr):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(vErr.Error()))
	case errors.As(err, &nfErr):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(nfErr.Error()))
	case errors.As(err, &isErr):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(isErr.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Database error"))
	}
}
