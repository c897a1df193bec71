package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/savings-tracker/internal/auth"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

// httpError is the body of every error response.
type httpError struct {
	Error string `json:"error"`
}

var (
	errInvalidBody      = errors.New("invalid request body")
	errTemplateNotFound = errors.New("template not found")
	errInvalidQuery     = errors.New("invalid query parameter")
)

const internalErrorMessage = "Error interno del servidor"

// errorMessages overrides the message of errors the client shows verbatim.
var errorMessages = map[error]string{
	auth.ErrMissingFields:  "Faltan datos para registrarte.",
	auth.ErrEmailTaken:     "Ya existe una cuenta con este email.",
	auth.ErrUserNotFound:   "Usuario no encontrado.",
	auth.ErrWrongPassword:  "Contraseña incorrecta.",
	auth.ErrTokenRequired:  "Token de sesión requerido",
	auth.ErrInvalidSession: "Sesión inválida o expirada",
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrTokenRequired),
		errors.Is(err, auth.ErrInvalidSession),
		errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, tracker.ErrGoalNotFound),
		errors.Is(err, tracker.ErrEntryNotFound),
		errors.Is(err, goals.ErrCollaboratorNotFound),
		errors.Is(err, errTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidQuery),
		errors.Is(err, goals.ErrNameRequired),
		errors.Is(err, goals.ErrCostNotPositive),
		errors.Is(err, goals.ErrCollaboratorNameRequired),
		errors.Is(err, goals.ErrInvalidRole),
		errors.Is(err, goals.ErrCommentRequired),
		errors.Is(err, tracker.ErrNegativeAmount),
		errors.Is(err, tracker.ErrInvalidCategory),
		errors.Is(err, tracker.ErrSubscriptionName),
		errors.Is(err, tracker.ErrInvalidSubscription),
		errors.Is(err, tracker.ErrInvalidCadence),
		errors.Is(err, tracker.ErrInvalidChannel),
		errors.Is(err, tracker.ErrInvalidReminderHour):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, httpError{Error: message})
}

// fail writes err as a JSON error. Unexpected errors are logged and hidden.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error().
			Err(err).
			Str("request_id", requestid.Get(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
		abortWithError(c, status, internalErrorMessage)
		return
	}

	for target, msg := range errorMessages {
		if errors.Is(err, target) {
			abortWithError(c, status, msg)
			return
		}
	}
	abortWithError(c, status, err.Error())
}
