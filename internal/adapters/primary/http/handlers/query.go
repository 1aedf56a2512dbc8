package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"sia-service/internal/adapters/primary/http/middleware"
	"sia-service/internal/core/domain"
	"sia-service/internal/siav2"
	"sia-service/internal/votable"
)

const resultFilename = "result.xml"

// Query handles GET and POST /{collection}/query. The response is always a
// VOTable: a streamed results table, the MAXREC=0 self-description, or an
// error table for usage faults.
func (h *Handler) Query(c *gin.Context) {
	collection, err := h.collections.Get(c.Param("collection"))
	if err != nil {
		mapFault(c, err)
		return
	}

	values, err := requestParams(c)
	if err != nil {
		mapFault(c, err)
		return
	}

	query, err := siav2.Parse(values)
	if err != nil {
		mapFault(c, err)
		return
	}

	if query.SelfDescribe() {
		writeVOTableHeaders(c)
		accessURL := fmt.Sprintf("%s/%s/query", baseURL(c), collection.Name)
		if err := h.selfDesc.Write(c.Writer, collection, accessURL); err != nil {
			log.WithError(err).Error("write self-description")
		}
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	it, err := h.query.Execute(ctx, collection, query, middleware.Token(c))
	if err != nil {
		mapFault(c, err)
		return
	}
	defer it.Close()

	// From here on the status is committed; failures while iterating are
	// reported inside the document.
	writeVOTableHeaders(c)
	vw := votable.NewWriter(c.Writer, domain.RecordFields())
	if err := vw.WriteHeader(); err != nil {
		log.WithError(err).Warn("client went away during votable header")
		return
	}
	for it.Next() {
		if err := vw.WriteRow(it.Record().Values()); err != nil {
			log.WithError(err).Warn("client went away during votable stream")
			return
		}
	}
	if err := it.Err(); err != nil {
		log.WithError(err).Error("query iteration failed mid-stream")
		_ = vw.Abort(domain.FaultOf(err).Error())
		return
	}
	if err := vw.Close(it.Overflowed()); err != nil {
		log.WithError(err).Warn("client went away during votable trailer")
	}
}

func writeVOTableHeaders(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename="+resultFilename)
	c.Header("Content-Type", votable.MediaType)
	c.Status(http.StatusOK)
}

// requestParams collects the raw parameters of the request. GET reads the
// URL query; POST reads the form-encoded body, or a JSON object for
// tooling convenience.
func requestParams(c *gin.Context) (url.Values, error) {
	if c.Request.Method == http.MethodGet {
		return c.Request.URL.Query(), nil
	}

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		return jsonParams(c)
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, domain.UsageFault("could not parse form body: %v", err)
	}
	return c.Request.PostForm, nil
}

func jsonParams(c *gin.Context) (url.Values, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, domain.UsageFault("could not parse JSON body: %v", err)
	}
	values := make(url.Values, len(body))
	for key, val := range body {
		switch v := val.(type) {
		case []any:
			for _, item := range v {
				values.Add(key, fmt.Sprint(item))
			}
		default:
			values.Add(key, fmt.Sprint(v))
		}
	}
	return values, nil
}
