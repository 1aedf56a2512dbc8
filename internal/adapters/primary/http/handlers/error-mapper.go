package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"sia-service/internal/core/domain"
	"sia-service/internal/votable"
)

// mapFault renders an error that occurred before any response bytes were
// written. Usage faults keep the VOTable envelope per the DALI error
// contract; the remaining kinds are plain HTTP errors because the request
// never reached a well-formed query context.
func mapFault(c *gin.Context, err error) {
	fault := domain.FaultOf(err)

	switch {
	case fault.Kind == domain.FaultUsage:
		c.Header("Content-Type", "application/xml")
		c.Status(http.StatusBadRequest)
		if werr := votable.WriteError(c.Writer, fault.Error()); werr != nil {
			log.WithError(werr).Error("write error votable")
		}

	case fault.Kind == domain.FaultAuthorization:
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": fault.Error()})

	case fault.Kind == domain.FaultNotFound,
		errors.Is(err, domain.ErrCollectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	default:
		log.WithError(err).Error("query processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
