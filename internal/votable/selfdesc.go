package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"sia-service/internal/core/domain"
)

// Option is one enumerated value of an input parameter.
type Option struct {
	Name  string
	Value string
}

// InputParam describes one accepted query parameter in the service
// self-description.
type InputParam struct {
	Name        string
	Datatype    string
	Unit        string
	Description string
	Options     []Option
}

// SelfDescription is the metadata variant of the service response,
// returned for MAXREC=0 instead of running a query.
type SelfDescription struct {
	Description        string
	ResourceIdentifier string
	AccessURL          string
	FacilityName       string
	InputParams        []InputParam
	OutputFields       []domain.Field
}

// WriteSelfDescription renders the self-description as a RESOURCE of type
// "meta", listing the accepted input parameters with their known value
// enumerations and the output columns a query produces.
func WriteSelfDescription(w io.Writer, sd *SelfDescription) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(`<RESOURCE type="meta" utype="adhoc:service">` + "\n")
	if sd.Description != "" {
		b.WriteString("<DESCRIPTION>" + escape(sd.Description) + "</DESCRIPTION>\n")
	}
	if sd.ResourceIdentifier != "" {
		b.WriteString(`<INFO name="ivo-id" value="` + escape(sd.ResourceIdentifier) + "\"/>\n")
	}
	if sd.FacilityName != "" {
		b.WriteString(`<INFO name="facility" value="` + escape(sd.FacilityName) + "\"/>\n")
	}
	b.WriteString(`<PARAM name="standardID" datatype="char" arraysize="*" value="ivo://ivoa.net/std/SIA#query-2.0"/>` + "\n")
	b.WriteString(`<PARAM name="accessURL" datatype="char" arraysize="*" value="` + escape(sd.AccessURL) + "\"/>\n")

	b.WriteString(`<GROUP name="inputParams">` + "\n")
	for _, p := range sd.InputParams {
		writeInputParam(&b, p)
	}
	b.WriteString("</GROUP>\n")

	b.WriteString(`<GROUP name="outputParams">` + "\n")
	for _, f := range sd.OutputFields {
		b.WriteString(fmt.Sprintf(`<PARAM name="%s" datatype="%s"`, escape(f.Name), escape(f.Datatype)))
		if f.ArraySize != "" {
			b.WriteString(` arraysize="` + escape(f.ArraySize) + `"`)
		}
		if f.Unit != "" {
			b.WriteString(` unit="` + escape(f.Unit) + `"`)
		}
		if f.UCD != "" {
			b.WriteString(` ucd="` + escape(f.UCD) + `"`)
		}
		b.WriteString(` value=""/>` + "\n")
	}
	b.WriteString("</GROUP>\n")

	b.WriteString("</RESOURCE>\n</VOTABLE>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeInputParam(b *strings.Builder, p InputParam) {
	b.WriteString(fmt.Sprintf(`<PARAM name="%s" datatype="%s" arraysize="*"`, escape(p.Name), escape(p.Datatype)))
	if p.Unit != "" {
		b.WriteString(` unit="` + escape(p.Unit) + `"`)
	}
	b.WriteString(` value="">` + "\n")
	if p.Description != "" {
		b.WriteString("<DESCRIPTION>" + escape(p.Description) + "</DESCRIPTION>\n")
	}
	if len(p.Options) > 0 {
		b.WriteString("<VALUES>\n")
		for _, o := range p.Options {
			if o.Name != "" {
				b.WriteString(fmt.Sprintf("<OPTION name=\"%s\" value=\"%s\"/>\n", escape(o.Name), escape(o.Value)))
			} else {
				b.WriteString(fmt.Sprintf("<OPTION value=\"%s\"/>\n", escape(o.Value)))
			}
		}
		b.WriteString("</VALUES>\n")
	}
	b.WriteString("</PARAM>\n")
}

func escape(s string) string {
	var b strings.Builder
	// EscapeText never fails on a strings.Builder.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
