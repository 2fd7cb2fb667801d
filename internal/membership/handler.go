// internal/membership/handler.go
package membership

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"librecord/internal/rest"
	"librecord/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) HandleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.log.Error("failed to list customers", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if customers == nil {
		customers = []*Customer{}
	}

	rest.JSON(w, http.StatusOK, customers)
}

func (h *Handler) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Customer not found")
	case err != nil:
		h.log.Error("failed to get customer", zap.Int64("customer_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusOK, customer)
	}
}

func (h *Handler) HandleAddCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string `json:"name"`
		City   *string `json:"city"`
		Age    *int    `json:"age"`
		Mail   *string `json:"mail"`
		Gender *string `json:"gender"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.Error(w, http.StatusBadRequest, "No input data provided")
		return
	}
	if req.Name == nil || req.City == nil || req.Age == nil || req.Gender == nil {
		rest.Error(w, http.StatusBadRequest, "Missing data")
		return
	}

	customer, err := h.service.AddCustomer(r.Context(), *req.Name, *req.City, *req.Age, req.Mail, *req.Gender)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		rest.Error(w, http.StatusBadRequest, "Email already in use")
	case err != nil:
		h.log.Error("failed to add customer", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusCreated, customer)
	}
}

func (h *Handler) HandleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var patch CustomerPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), id, patch)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Customer not found")
	case errors.Is(err, storage.ErrDuplicate):
		rest.Error(w, http.StatusBadRequest, "Email already in use")
	case err != nil:
		h.log.Error("failed to update customer", zap.Int64("customer_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusOK, customer)
	}
}

func (h *Handler) HandleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteCustomer(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Customer not found")
	case err != nil:
		h.log.Error("failed to delete customer", zap.Int64("customer_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid customer id")
		return 0, false
	}
	return id, true
}
