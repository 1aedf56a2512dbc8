package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"sia-service/internal/core/domain"
	"sia-service/internal/siav2"
	"sia-service/internal/votable"
)

// SelfDescriptionService renders the MAXREC=0 metadata response. The
// declared parameters and value enumerations are derived from the
// collection's ObsCore mapping so they stay consistent with what the
// validator and translator actually accept.
type SelfDescriptionService struct {
	maxMaxRec int
}

func NewSelfDescriptionService(maxMaxRec int) *SelfDescriptionService {
	return &SelfDescriptionService{maxMaxRec: maxMaxRec}
}

// Write streams the self-description VOTable for one collection.
// accessURL is the absolute URL of the collection's query endpoint.
func (s *SelfDescriptionService) Write(w io.Writer, collection *domain.Collection, accessURL string) error {
	return votable.WriteSelfDescription(w, s.describe(collection, accessURL))
}

func (s *SelfDescriptionService) describe(collection *domain.Collection, accessURL string) *votable.SelfDescription {
	mapping := collection.Mapping

	sd := &votable.SelfDescription{
		Description: fmt.Sprintf(
			"SIAv2 image discovery service for the %s data collection", collection.Label),
		AccessURL:    accessURL,
		OutputFields: domain.RecordFields(),
	}
	if mapping != nil {
		sd.ResourceIdentifier = mapping.ResourceIdentifier
		sd.FacilityName = mapping.FacilityName
	}

	sd.InputParams = []votable.InputParam{
		{
			Name:        "POS",
			Datatype:    "char",
			Description: "Positional region(s) to be searched: CIRCLE <ra> <dec> <radius>, RANGE <ra1> <ra2> <dec1> <dec2> or POLYGON <ra1> <dec1> ... (ICRS degrees)",
		},
		{
			Name:        "TIME",
			Datatype:    "char",
			Unit:        "d",
			Description: "Time interval(s) to be searched, as MJD scalars or open intervals",
		},
		{
			Name:        "BAND",
			Datatype:    "char",
			Unit:        "m",
			Description: "Energy interval(s) to be searched, as wavelength in meters",
			Options:     bandOptions(mapping),
		},
		{
			Name:        "EXPTIME",
			Datatype:    "char",
			Unit:        "s",
			Description: "Exposure time interval(s) to be searched",
		},
		{
			Name:        "CALIB",
			Datatype:    "int",
			Description: "Calibration level of the data",
			Options: []votable.Option{
				{Value: "0"}, {Value: "1"}, {Value: "2"}, {Value: "3"},
			},
		},
		{
			Name:        "INSTRUMENT",
			Datatype:    "char",
			Description: "Name of the instrument",
			Options:     instrumentOptions(mapping),
		},
		{
			Name:        "MAXREC",
			Datatype:    "int",
			Description: fmt.Sprintf("Maximum number of records in the response, at most %d; 0 returns this self-description", s.maxMaxRec),
		},
		{
			Name:        "RESPONSEFORMAT",
			Datatype:    "char",
			Description: "Format of the response",
			Options:     responseFormatOptions(),
		},
	}
	return sd
}

func bandOptions(mapping *domain.ObsCoreMapping) []votable.Option {
	if mapping == nil {
		return nil
	}
	opts := make([]votable.Option, 0, len(mapping.Bands))
	for _, b := range mapping.Bands {
		opts = append(opts, votable.Option{
			Name:  b.Label,
			Value: strconv.FormatFloat(b.Low, 'g', -1, 64) + " " + strconv.FormatFloat(b.High, 'g', -1, 64),
		})
	}
	return opts
}

func instrumentOptions(mapping *domain.ObsCoreMapping) []votable.Option {
	if mapping == nil {
		return nil
	}
	opts := make([]votable.Option, 0, len(mapping.Instruments))
	for _, name := range mapping.Instruments {
		opts = append(opts, votable.Option{Value: name})
	}
	return opts
}

func responseFormatOptions() []votable.Option {
	formats := make([]string, 0, len(siav2.ResponseFormats))
	for f := range siav2.ResponseFormats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	opts := make([]votable.Option, 0, len(formats))
	for _, f := range formats {
		opts = append(opts, votable.Option{Value: f})
	}
	return opts
}
