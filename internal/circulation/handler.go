// internal/circulation/handler.go
package circulation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"librecord/internal/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) HandleIssueLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustID *int64 `json:"cust_id"`
		BookID *int64 `json:"book_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustID == nil || req.BookID == nil {
		rest.Error(w, http.StatusBadRequest, "Missing data")
		return
	}

	loan, err := h.service.IssueLoan(r.Context(), *req.CustID, *req.BookID)
	switch {
	case errors.Is(err, ErrBookOnLoan):
		rest.Error(w, http.StatusBadRequest, "Book is currently on loan")
	case errors.Is(err, ErrInvalidBookType):
		rest.Error(w, http.StatusBadRequest, "Invalid book type")
	case errors.Is(err, ErrBookNotFound):
		rest.Error(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, ErrCustomerNotFound):
		rest.Error(w, http.StatusNotFound, "Customer not found")
	case err != nil:
		h.log.Error("failed to issue loan", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusCreated, loan)
	}
}

func (h *Handler) HandleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		h.log.Error("failed to list loans", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	rest.JSON(w, http.StatusOK, loans)
}

func (h *Handler) HandleListLoansByEmail(w http.ResponseWriter, r *http.Request) {
	mail := chi.URLParam(r, "email")

	loans, err := h.service.ListLoansByEmail(r.Context(), mail)
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		rest.Error(w, http.StatusNotFound, "Customer not found")
	case err != nil:
		h.log.Error("failed to list loans by email", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusOK, loans)
	}
}
