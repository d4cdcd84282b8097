package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"library_app_echo/internal/services"
)

// CatalogHandler serves catalog browsing and book availability
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListBooks searches the catalog with optional q/category filters
func (h *CatalogHandler) ListBooks(c echo.Context) error {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	books, total, err := h.catalog.SearchBooks(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"), page, perPage)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"books": books,
		"total": total,
		"page":  page,
	})
}

// GetBook returns one book with its current availability
func (h *CatalogHandler) GetBook(c echo.Context) error {
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	book, err := h.catalog.GetBook(c.Request().Context(), bookID)
	if err != nil {
		return err
	}

	available, err := h.catalog.AvailableCopiesCount(c.Request().Context(), bookID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"book":             book,
		"available_copies": available,
		"total_copies":     len(book.Copies),
	})
}
