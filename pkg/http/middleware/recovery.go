package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	applogger "SalesCast/pkg/logger"
)

// Recover logs a handler panic with its stack and returns it as an error.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("http handler panic",
						applogger.String("route", routeLabel(c)),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					// the server's error handler renders it as a 500
					err = fmt.Errorf("handler panic: %w", perr)
				}
			}()
			return next(c)
		}
	}
}
