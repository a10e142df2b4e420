package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/pkg/auth"
)

func (h *Handler) GetBooks(c echo.Context) error {
	page, size := paging(c)
	f := model.BookFilter{
		Search: c.QueryParam("search"),
		Page:   page,
		Size:   size,
	}
	if raw := c.QueryParam("categoryId"); raw != "" {
		categoryID, err := strconv.Atoi(raw)
		if err != nil || categoryID <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid categoryId")
		}
		f.CategoryID = categoryID
	}

	viewerID := 0
	if id, ok := auth.FromContext(c.Request().Context()); ok {
		viewerID = id.UserID
	}
	list, err := h.catalogSvc.ListBooks(c.Request().Context(), viewerID, f)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	viewerID := 0
	if viewer, ok := auth.FromContext(c.Request().Context()); ok {
		viewerID = viewer.UserID
	}
	book, err := h.catalogSvc.Book(c.Request().Context(), viewerID, id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.catalogSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.catalogSvc.DeleteBook(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
