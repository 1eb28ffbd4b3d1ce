// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageMeta handles GET /api/pages/:name, returning the static metadata the
// frontend attaches to a route.
func (h *Handlers) PageMeta(c echo.Context) error {
	page, ok := h.pages.Get(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, Response{Message: "unknown page"})
	}
	return c.JSON(http.StatusOK, page)
}
