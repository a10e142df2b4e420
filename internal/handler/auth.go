package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/libroteca/library-service/internal/model"
)

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	resp, err := h.authSvc.Register(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	resp, err := h.authSvc.Login(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CurrentUser(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.authSvc.User(c.Request().Context(), id.UserID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
