package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	apierrors "agilboard/internal/errors"
	"agilboard/internal/notification"
	"agilboard/internal/services"
	"agilboard/internal/upstream"
)

// serviceError decides what a handler passes to the error handler. Errors with a defined
// HTTP meaning go through untouched; anything else becomes a 500 carrying fallback as detail.
func serviceError(err error, fallback string) error {
	if errors.Is(err, services.ErrInvalidInput) {
		return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, err.Error())
	}
	if errors.Is(err, upstream.ErrNotFound) {
		return apierrors.NotFoundError("Problem")
	}

	var gwErr *notification.GatewayError
	switch {
	case errors.Is(err, upstream.ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &gwErr):
		return err
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return apierrors.NewInternalError(fallback)
}

// writeRelay answers with the status and JSON body an upstream mutation returned.
func writeRelay(w http.ResponseWriter, r *http.Request, relay *upstream.Relay) {
	if len(relay.Body) == 0 {
		w.WriteHeader(relay.StatusCode)
		return
	}
	render.Status(r, relay.StatusCode)
	render.JSON(w, r, relay.Body)
}
