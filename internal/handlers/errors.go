package handlers

import (
	"errors"
	"net/http"

	"loterias/internal/database"
	"loterias/internal/models"
	"loterias/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNoReference, http.StatusBadRequest},
	{services.ErrNoCandidates, http.StatusBadRequest},
	{services.ErrInvalidPreferences, http.StatusBadRequest},
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrInvalidMethod, http.StatusBadRequest},
	{services.ErrMissingColumn, http.StatusBadRequest},
	{models.ErrInvalidFilter, http.StatusBadRequest},
	{services.ErrInvalidCode, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrInvalidToken, http.StatusUnauthorized},
	{services.ErrUserNotConfirmed, http.StatusForbidden},
	{services.ErrNoActiveSubscription, http.StatusForbidden},
	{services.ErrDrawNotFound, http.StatusNotFound},
	{services.ErrPlanNotFound, http.StatusNotFound},
	{services.ErrPaymentNotFound, http.StatusNotFound},
	{database.ErrNotFound, http.StatusNotFound},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrAlreadyPaid, http.StatusConflict},
}

// statusFor maps a service error to its HTTP status; unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Warningf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
