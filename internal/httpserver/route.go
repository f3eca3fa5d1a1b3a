package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cart_ledger/internal/db"
)

type Deps struct {
	CartHandler *CartHTTP
	DB          *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/:user_id/cart", d.CartHandler.GetCart)
	e.PUT("/:user_id/add/product/:product_id", d.CartHandler.AddToCart)
	e.DELETE("/:user_id/delete/product/:product_id", d.CartHandler.RemoveFromCart)
	e.PUT("/:user_id/change/product/count/:product_id", d.CartHandler.ChangeCount)
}
