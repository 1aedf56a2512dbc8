package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OpenAPI serves a machine-readable description of the service surface,
// one path set per configured collection.
func (h *Handler) OpenAPI(c *gin.Context) {
	paths := gin.H{}
	for _, collection := range h.collections.All() {
		prefix := "/" + collection.Name
		paths[prefix+"/query"] = gin.H{
			"get": gin.H{
				"summary": "IVOA SIAv2 query",
				"parameters": []gin.H{
					queryParam("POS", "Positional region(s) to be searched"),
					queryParam("TIME", "Time interval(s) to be searched (MJD)"),
					queryParam("BAND", "Energy interval(s) to be searched (m)"),
					queryParam("EXPTIME", "Exposure time interval(s) (s)"),
					queryParam("CALIB", "Calibration level (0-3)"),
					queryParam("INSTRUMENT", "Instrument name"),
					queryParam("MAXREC", "Maximum number of records; 0 returns the service self-description"),
					queryParam("RESPONSEFORMAT", "Response format"),
				},
				"responses": votableResponses(),
			},
			"post": gin.H{
				"summary":   "IVOA SIAv2 query (form-encoded)",
				"responses": votableResponses(),
			},
		}
		paths[prefix+"/capabilities"] = gin.H{
			"get": gin.H{
				"summary":   "VOSI capabilities",
				"responses": gin.H{"200": gin.H{"description": "VOSI-capabilities document"}},
			},
		}
		paths[prefix+"/availability"] = gin.H{
			"get": gin.H{
				"summary":   "VOSI availability",
				"responses": gin.H{"200": gin.H{"description": "VOSI-availability document"}},
			},
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"openapi": "3.1.0",
		"info": gin.H{
			"title":       "sia",
			"description": "IVOA Simple Image Access v2 service over butler data collections",
			"version":     "1.0.0",
		},
		"paths": paths,
	})
}

func queryParam(name, description string) gin.H {
	return gin.H{
		"name":        name,
		"in":          "query",
		"description": description,
		"schema":      gin.H{"type": "string"},
	}
}

func votableResponses() gin.H {
	return gin.H{
		"200": gin.H{"description": "VOTable result set or self-description"},
		"400": gin.H{"description": "Invalid query parameters, as an error VOTable"},
		"404": gin.H{"description": "Unknown collection"},
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
