package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cart_ledger/internal/logging"
	"github.com/Skotchmaster/cart_ledger/internal/service"
	"github.com/Skotchmaster/cart_ledger/internal/transport"
)

const removedDetail = "Product removed from cart"

type CartHTTP struct {
	Svc *service.CartService
}

// parseID accepts ids up to the signed 64-bit range that database drivers can bind.
func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 63)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(v), nil
}

func parseIDs(c echo.Context) (uint, uint, error) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return 0, 0, err
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return 0, 0, err
	}
	return userID, productID, nil
}

// ledgerError maps ledger failures to HTTP errors and logs them at the matching level.
func ledgerError(c echo.Context, op string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, service.ErrNotFound):
		entity, _ := service.MissingEntity(err)
		l.Warn(op+"_not_found", "status", 404, "entity", string(entity))
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		l.Warn(op+"_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "count must be greater than zero")
	default:
		l.Error(op+"_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	items, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return ledgerError(c, "get_cart", err)
	}

	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, productID, err := parseIDs(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return err
	}

	item, err := h.Svc.AddOrIncrement(ctx, userID, productID)
	if err != nil {
		return ledgerError(c, "add_to_cart", err)
	}

	l.Info("item added to cart", "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, productID, err := parseIDs(c)
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.Remove(ctx, userID, productID); err != nil {
		return ledgerError(c, "remove_from_cart", err)
	}

	l.Info("item removed from cart")
	return c.JSON(http.StatusOK, transport.DetailResponse{Detail: removedDetail})
}

func (h *CartHTTP) ChangeCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.change_count")

	userID, productID, err := parseIDs(c)
	if err != nil {
		l.Warn("change_count_error", "status", 400, "error", err)
		return err
	}

	var req transport.CountUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("change_count_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Count == nil {
		l.Warn("change_count_error", "status", 400, "reason", "count missing")
		return echo.NewHTTPError(http.StatusBadRequest, "count required")
	}

	item, err := h.Svc.SetQuantity(ctx, userID, productID, *req.Count)
	if err != nil {
		return ledgerError(c, "change_count", err)
	}

	l.Info("cart item count changed", "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}
