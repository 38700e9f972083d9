package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// JSON writes data in the envelope with the given status.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Status: status, Message: http.StatusText(status), Data: data})
}

func OK(c echo.Context, data any) error { return JSON(c, http.StatusOK, data) }

func Created(c echo.Context, data any) error { return JSON(c, http.StatusCreated, data) }

func List(c echo.Context, rows any, total int) error {
	return OK(c, &Page{Rows: rows, Total: total})
}

// Invalid writes request validation problems as a 400.
func Invalid(c echo.Context, problems []ValidationError) error {
	return JSON(c, http.StatusBadRequest, problems)
}

// Fail writes the *AppError found in err's chain. Anything else becomes an
// opaque 500 so internal messages never reach clients.
func Fail(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}
	return JSON(c, appErr.Status, []*AppError{appErr})
}

// writeError is the server's echo.HTTPErrorHandler. Router errors such as an
// unknown route get codes derived from their status text, e.g. ERR_METHOD_NOT_ALLOWED.
func writeError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && !errors.As(err, new(*AppError)) {
		code := CodeInternal
		if he.Code < http.StatusInternalServerError {
			code = "ERR_" + strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		}
		err = Errorf(he.Code, code, "%v", he.Message).Because(err)
	}
	_ = Fail(c, err)
}
