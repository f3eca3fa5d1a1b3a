package httpserver

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/cart_ledger/internal/middleware/logging"
)

// Common is the middleware chain every cart server runs. RequestID goes before the
// logger so the logger can pick the generated id up from the response header.
func Common(logger *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(logger),
		echomw.Secure(),
	}
}
