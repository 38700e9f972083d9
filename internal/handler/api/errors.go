package api

import (
	"context"
	"errors"

	"SalesCast/internal/domain/models"
	xhttp "SalesCast/pkg/http"
)

// pipelineCodes maps data problems to 422 codes, checked in order.
var pipelineCodes = []struct {
	target error
	code   string
}{
	{models.ErrMissingColumns, "ERR_MISSING_COLUMNS"},
	{models.ErrInsufficientColumns, "ERR_INSUFFICIENT_COLUMNS"},
	{models.ErrInsufficientData, "ERR_INSUFFICIENT_DATA"},
	{models.ErrEmptyResult, "ERR_EMPTY_RESULT"},
	{models.ErrFit, "ERR_FIT"},
}

// toAppError maps pipeline errors to HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, models.ErrRunNotFound) {
		return xhttp.NotFound("run not found").Because(err)
	}
	for _, pc := range pipelineCodes {
		if errors.Is(err, pc.target) {
			return xhttp.Unprocessable(pc.code, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return xhttp.Timeout(err)
	}
	return xhttp.Internal(err)
}
