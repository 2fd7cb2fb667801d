// internal/catalog/handler.go
package catalog

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

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		h.log.Error("failed to list books", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if books == nil {
		books = []*Book{}
	}

	rest.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Book not found")
	case err != nil:
		h.log.Error("failed to get book", zap.Int64("book_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusOK, book)
	}
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string `json:"name"`
		Author        *string `json:"author"`
		YearPublished *int    `json:"year_published"`
		Type          *int    `json:"type"`
		Img           *string `json:"img"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil || req.Author == nil || req.YearPublished == nil || req.Type == nil || req.Img == nil {
		rest.Error(w, http.StatusBadRequest, "Missing data")
		return
	}

	book, err := h.service.AddBook(r.Context(), *req.Name, *req.Author, *req.YearPublished, *req.Type, *req.Img)
	if err != nil {
		h.log.Error("failed to add book", zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	rest.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var patch BookPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, patch)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Book not found")
	case err != nil:
		h.log.Error("failed to update book", zap.Int64("book_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		rest.JSON(w, http.StatusOK, book)
	}
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteBook(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rest.Error(w, http.StatusNotFound, "Book not found")
	case err != nil:
		h.log.Error("failed to delete book", zap.Int64("book_id", id), zap.Error(err))
		rest.Error(w, http.StatusInternalServerError, "internal error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		rest.Error(w, http.StatusBadRequest, "invalid book id")
		return 0, false
	}
	return id, true
}
