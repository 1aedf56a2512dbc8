package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"sia-service/internal/core/services"
)

type Handler struct {
	collections  *services.CollectionService
	query        *services.QueryService
	selfDesc     *services.SelfDescriptionService
	availability *services.AvailabilityService
	queryTimeout time.Duration
}

func New(
	collections *services.CollectionService,
	query *services.QueryService,
	selfDesc *services.SelfDescriptionService,
	availability *services.AvailabilityService,
	queryTimeout time.Duration,
) *Handler {
	return &Handler{
		collections:  collections,
		query:        query,
		selfDesc:     selfDesc,
		availability: availability,
		queryTimeout: queryTimeout,
	}
}

// RegisterRoutes wires the IVOA endpoints. The anonymous group carries the
// VOSI resources and the OpenAPI document; everything else sits behind the
// authenticated group.
func (h *Handler) RegisterRoutes(anon, authed *gin.RouterGroup) {
	anon.GET("/openapi.json", h.OpenAPI)
	anon.GET("/:collection/capabilities", h.Capabilities)
	anon.GET("/:collection/availability", h.Availability)

	authed.GET("/:collection/query", h.Query)
	authed.POST("/:collection/query", h.Query)
}

// baseURL reconstructs the externally visible URL prefix of the request,
// honoring the proxy forwarding headers.
func baseURL(c *gin.Context) string {
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		if c.Request.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
