// Package votable serializes query results, service self-descriptions and
// errors as IVOA VOTable 1.3 documents. Results are written incrementally
// so large result sets never need to be buffered in full.
package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sia-service/internal/core/domain"
)

// MediaType is the content type of every successful response.
const MediaType = "application/x-votable+xml"

const header = xml.Header + `<VOTABLE version="1.3" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
`

// flushEvery bounds how many rows are written between flushes to the
// client's socket.
const flushEvery = 100

// contentEscaper escapes element content. Quotes stay literal so fault
// messages read back exactly as produced; attribute values still go
// through xml.EscapeText.
var contentEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Writer streams one results VOTable to w. The header, FIELD declarations
// and rows are emitted as they become available; Close finishes the
// document and reports overflow or a mid-stream failure via a trailing
// INFO element.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	fields  []domain.Field
	rows    int
	started bool
	err     error
}

func NewWriter(w io.Writer, fields []domain.Field) *Writer {
	writer := &Writer{w: w, fields: fields}
	if f, ok := w.(http.Flusher); ok {
		writer.flusher = f
	}
	return writer
}

// WriteHeader emits everything up to the first table row, including the
// QUERY_STATUS=OK marker and the FIELD declarations.
func (vw *Writer) WriteHeader() error {
	if vw.started {
		return nil
	}
	vw.started = true
	if err := vw.writeString(header); err != nil {
		return err
	}
	if err := vw.writeString("<RESOURCE type=\"results\">\n<INFO name=\"QUERY_STATUS\" value=\"OK\"/>\n<TABLE>\n"); err != nil {
		return err
	}
	for _, f := range vw.fields {
		if err := vw.writeField(f); err != nil {
			return err
		}
	}
	return vw.writeString("<DATA>\n<TABLEDATA>\n")
}

func (vw *Writer) writeField(f domain.Field) error {
	attrs := fmt.Sprintf(`<FIELD name=%q datatype=%q`, f.Name, f.Datatype)
	if f.ArraySize != "" {
		attrs += fmt.Sprintf(` arraysize=%q`, f.ArraySize)
	}
	if f.Unit != "" {
		attrs += fmt.Sprintf(` unit=%q`, f.Unit)
	}
	if f.UCD != "" {
		attrs += fmt.Sprintf(` ucd=%q`, f.UCD)
	}
	return vw.writeString(attrs + "/>\n")
}

// WriteRow emits one TR element. Values must align with the declared
// fields; cells are XML-escaped.
func (vw *Writer) WriteRow(values []string) error {
	if !vw.started {
		if err := vw.WriteHeader(); err != nil {
			return err
		}
	}
	if len(values) != len(vw.fields) {
		return fmt.Errorf("row has %d values for %d fields", len(values), len(vw.fields))
	}
	if err := vw.writeString("<TR>"); err != nil {
		return err
	}
	for _, v := range values {
		if err := vw.writeString("<TD>"); err != nil {
			return err
		}
		if err := xml.EscapeText(vw.w, []byte(v)); err != nil {
			vw.err = err
			return err
		}
		if err := vw.writeString("</TD>"); err != nil {
			return err
		}
	}
	if err := vw.writeString("</TR>\n"); err != nil {
		return err
	}
	vw.rows++
	if vw.flusher != nil && vw.rows%flushEvery == 0 {
		vw.flusher.Flush()
	}
	return nil
}

// Close finishes the document. When overflow is set, a QUERY_STATUS
// OVERFLOW INFO trails the table per the DALI convention.
func (vw *Writer) Close(overflow bool) error {
	if !vw.started {
		if err := vw.WriteHeader(); err != nil {
			return err
		}
	}
	trailer := ""
	if overflow {
		trailer = "<INFO name=\"QUERY_STATUS\" value=\"OVERFLOW\"/>\n"
	}
	if err := vw.writeString("</TABLEDATA>\n</DATA>\n</TABLE>\n" + trailer + "</RESOURCE>\n</VOTABLE>\n"); err != nil {
		return err
	}
	if vw.flusher != nil {
		vw.flusher.Flush()
	}
	return nil
}

// Abort terminates the document after a mid-stream failure. The HTTP
// status is already on the wire at that point, so the fault is reported as
// a trailing QUERY_STATUS=ERROR element instead.
func (vw *Writer) Abort(detail string) error {
	if !vw.started {
		return WriteError(vw.w, detail)
	}
	if err := vw.writeString("</TABLEDATA>\n</DATA>\n</TABLE>\n<INFO name=\"QUERY_STATUS\" value=\"ERROR\">"); err != nil {
		return err
	}
	if err := vw.writeString(contentEscaper.Replace(detail)); err != nil {
		return err
	}
	return vw.writeString("</INFO>\n</RESOURCE>\n</VOTABLE>\n")
}

// Rows returns the number of rows written so far.
func (vw *Writer) Rows() int {
	return vw.rows
}

func (vw *Writer) writeString(s string) error {
	if vw.err != nil {
		return vw.err
	}
	if _, err := io.WriteString(vw.w, s); err != nil {
		vw.err = err
		return err
	}
	return nil
}

// WriteError renders the error-variant VOTable: a single RESOURCE whose
// QUERY_STATUS=ERROR INFO element carries the fault message.
func WriteError(w io.Writer, detail string) error {
	if _, err := io.WriteString(w, header+"<RESOURCE type=\"results\">\n<INFO name=\"QUERY_STATUS\" value=\"ERROR\">"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, contentEscaper.Replace(detail)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</INFO>\n</RESOURCE>\n</VOTABLE>\n")
	return err
}
