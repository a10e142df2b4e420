package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/libroteca/library-service/internal/model"
)

func (h *Handler) CreateReservation(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	res, err := h.reservationSvc.CreateReservation(c.Request().Context(), actor.UserID, req.BookID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) MyReservations(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	page, size := paging(c)
	list, err := h.reservationSvc.MyReservations(c.Request().Context(), actor.UserID, page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) CancelReservation(c echo.Context) error {
	return h.cancelReservation(c, false)
}

func (h *Handler) AdminCancelReservation(c echo.Context) error {
	return h.cancelReservation(c, true)
}

func (h *Handler) cancelReservation(c echo.Context, asAdmin bool) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := h.reservationSvc.CancelReservation(c.Request().Context(), actor, id, asAdmin)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) AdminReservations(c echo.Context) error {
	page, size := paging(c)
	onlyActive, _ := strconv.ParseBool(c.QueryParam("onlyActive"))
	list, err := h.reservationSvc.AllReservations(c.Request().Context(), onlyActive, page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}
