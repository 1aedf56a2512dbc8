package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const capabilitiesTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<vosi:capabilities
    xmlns:vosi="http://www.ivoa.net/xml/VOSICapabilities/v1.0"
    xmlns:vod="http://www.ivoa.net/xml/VODataService/v1.1"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <capability standardID="ivo://ivoa.net/std/VOSI#capabilities">
    <interface xsi:type="vod:ParamHTTP" version="1.0">
      <accessURL use="full">%s/capabilities</accessURL>
    </interface>
  </capability>
  <capability standardID="ivo://ivoa.net/std/VOSI#availability">
    <interface xsi:type="vod:ParamHTTP" version="1.0">
      <accessURL use="full">%s/availability</accessURL>
    </interface>
  </capability>
  <capability standardID="ivo://ivoa.net/std/SIA#query-2.0">
    <interface xsi:type="vod:ParamHTTP" role="std" version="2.0">
      <accessURL use="base">%s/query</accessURL>
    </interface>
  </capability>
</vosi:capabilities>
`

const availabilityTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<vosi:availability xmlns:vosi="http://www.ivoa.net/xml/VOSIAvailability/v1.0">
  <vosi:available>%t</vosi:available>%s
</vosi:availability>
`

// Capabilities serves the VOSI-capabilities document for one collection.
func (h *Handler) Capabilities(c *gin.Context) {
	collection, err := h.collections.Get(c.Param("collection"))
	if err != nil {
		mapFault(c, err)
		return
	}

	prefix := fmt.Sprintf("%s/%s", baseURL(c), collection.Name)
	body := fmt.Sprintf(capabilitiesTemplate, prefix, prefix, prefix)
	c.Data(http.StatusOK, "application/xml", []byte(body))
}

// Availability serves the VOSI-availability document for one collection.
// An unreachable repository reports available=false with a note; the
// endpoint itself always answers 200.
func (h *Handler) Availability(c *gin.Context) {
	collection, err := h.collections.Get(c.Param("collection"))
	if err != nil {
		mapFault(c, err)
		return
	}

	availability := h.availability.Check(c.Request.Context(), collection)
	note := ""
	if availability.Note != "" {
		note = "\n  <vosi:note>" + xmlEscape(availability.Note) + "</vosi:note>"
	}
	body := fmt.Sprintf(availabilityTemplate, availability.Available, note)
	c.Data(http.StatusOK, "application/xml", []byte(body))
}
