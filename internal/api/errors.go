package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/logs"
	"realty/internal/middleware"
	"realty/internal/models"
	"realty/internal/repo"
	"realty/internal/serial"
)

// errBadRequest — ошибки валидации входа, которые ловит сам обработчик.
var errBadRequest = errors.New("bad request")

func badRequest(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, a...))
}

// statusOf сопоставляет ошибку статусу и машинному коду ответа.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, audit.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repo.ErrAmbiguousMatch):
		return http.StatusMultipleChoices, "ambiguous_match"
	case errors.Is(err, repo.ErrInvalidFilter):
		return http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, repo.ErrInvalidField):
		return http.StatusBadRequest, "invalid_field"
	case errors.Is(err, serial.ErrNotSerializable):
		return http.StatusBadRequest, "not_serializable"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, repo.ErrConstraintViolation):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	detail := err.Error()

	entry := logs.Logger.WithFields(logrus.Fields{
		"reqid":  middleware.GetRequestID(r),
		"method": r.Method,
		"uri":    r.RequestURI,
		"status": status,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.WithError(err).Error("request failed")
		// причина остаётся в логах
		detail = "unexpected server error (see logs by reqid)"
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
		entry.Debug(err)
	default:
		entry.Debug(err)
	}
	models.WriteProblem(w, status, code, detail, nil)
}
