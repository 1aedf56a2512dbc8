package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Field describes one output column of a query result, as declared in the
// VOTable FIELD elements.
type Field struct {
	Name      string
	Datatype  string
	ArraySize string
	Unit      string
	UCD       string
}

// DatalinkFormat is the access_format value for rows whose access_url
// resolves to a datalink document rather than a direct file.
const DatalinkFormat = "application/x-votable+xml;content=datalink"

// Record is one ObsCore result row. Records are produced by a query engine
// and never mutated afterwards. Optional numeric columns are pointers so a
// missing value serializes as an empty cell.
type Record struct {
	DataproductType string
	CalibLevel      int
	ObsCollection   string
	ObsID           string
	ObsPublisherDID string
	AccessURL       string
	AccessFormat    string
	TargetName      string
	SRA             float64
	SDec            float64
	SFov            float64
	SRegion         string
	SResolution     *float64
	TMin            float64
	TMax            float64
	TExpTime        float64
	EmMin           float64
	EmMax           float64
	EmResPower      *float64
	OUCD            string
	PolStates       string
	FacilityName    string
	InstrumentName  string
}

// RecordFields returns the ObsCore output columns in serialization order.
// The slice index of each field matches the index of the corresponding
// value in Record.Values.
func RecordFields() []Field {
	return []Field{
		{Name: "dataproduct_type", Datatype: "char", ArraySize: "*", UCD: "meta.code.class"},
		{Name: "calib_level", Datatype: "int", UCD: "meta.code;obs.calib"},
		{Name: "obs_collection", Datatype: "char", ArraySize: "*", UCD: "meta.id"},
		{Name: "obs_id", Datatype: "char", ArraySize: "*", UCD: "meta.id"},
		{Name: "obs_publisher_did", Datatype: "char", ArraySize: "*", UCD: "meta.ref.ivoid"},
		{Name: "access_url", Datatype: "char", ArraySize: "*", UCD: "meta.ref.url"},
		{Name: "access_format", Datatype: "char", ArraySize: "*", UCD: "meta.code.mime"},
		{Name: "target_name", Datatype: "char", ArraySize: "*", UCD: "meta.id;src"},
		{Name: "s_ra", Datatype: "double", Unit: "deg", UCD: "pos.eq.ra"},
		{Name: "s_dec", Datatype: "double", Unit: "deg", UCD: "pos.eq.dec"},
		{Name: "s_fov", Datatype: "double", Unit: "deg", UCD: "phys.angSize;instr.fov"},
		{Name: "s_region", Datatype: "char", ArraySize: "*", UCD: "pos.outline;obs.field"},
		{Name: "s_resolution", Datatype: "double", Unit: "arcsec", UCD: "pos.angResolution"},
		{Name: "t_min", Datatype: "double", Unit: "d", UCD: "time.start;obs.exposure"},
		{Name: "t_max", Datatype: "double", Unit: "d", UCD: "time.end;obs.exposure"},
		{Name: "t_exptime", Datatype: "double", Unit: "s", UCD: "time.duration;obs.exposure"},
		{Name: "em_min", Datatype: "double", Unit: "m", UCD: "em.wl;stat.min"},
		{Name: "em_max", Datatype: "double", Unit: "m", UCD: "em.wl;stat.max"},
		{Name: "em_res_power", Datatype: "double", UCD: "spect.resolution"},
		{Name: "o_ucd", Datatype: "char", ArraySize: "*", UCD: "meta.ucd"},
		{Name: "pol_states", Datatype: "char", ArraySize: "*", UCD: "meta.code;phys.polarization"},
		{Name: "facility_name", Datatype: "char", ArraySize: "*", UCD: "meta.id;instr.tel"},
		{Name: "instrument_name", Datatype: "char", ArraySize: "*", UCD: "meta.id;instr"},
	}
}

// Values returns the row values in the order declared by RecordFields.
func (r *Record) Values() []string {
	return []string{
		r.DataproductType,
		strconv.Itoa(r.CalibLevel),
		r.ObsCollection,
		r.ObsID,
		r.ObsPublisherDID,
		r.AccessURL,
		r.AccessFormat,
		r.TargetName,
		formatFloat(r.SRA),
		formatFloat(r.SDec),
		formatFloat(r.SFov),
		r.SRegion,
		formatOptFloat(r.SResolution),
		formatFloat(r.TMin),
		formatFloat(r.TMax),
		formatFloat(r.TExpTime),
		formatFloat(r.EmMin),
		formatFloat(r.EmMax),
		formatOptFloat(r.EmResPower),
		r.OUCD,
		r.PolStates,
		r.FacilityName,
		r.InstrumentName,
	}
}

// ApplyDatalink rewrites the access URL through the collection's datalink
// endpoint when one is configured, and fills in the matching access
// format. The publisher DID is query-escaped before substitution. Rows
// without a datalink override keep their direct file URL.
func (r *Record) ApplyDatalink(c *Collection) {
	format := c.DatalinkURL
	if format == "" && c.Mapping != nil {
		format = c.Mapping.DatalinkURLFmt
	}
	if format != "" && r.ObsPublisherDID != "" {
		r.AccessURL = strings.ReplaceAll(format, "{id}", url.QueryEscape(r.ObsPublisherDID))
		r.AccessFormat = DatalinkFormat
		return
	}
	if r.AccessFormat == "" {
		r.AccessFormat = "image/fits"
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
