package services

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sia-service/internal/core/domain"
	"sia-service/internal/siav2"
)

func mappedCollection() *domain.Collection {
	return &domain.Collection{
		Name: "hsc", Label: "LSST.CI",
		ButlerType: domain.ButlerDirect, Repository: "obscore",
		Mapping: &domain.ObsCoreMapping{
			FacilityName:       "Subaru",
			ObsCollections:     []string{"LSST.CI"},
			ResourceIdentifier: "ivo://rubin//ci_hsc_gen3",
			Instruments:        []string{"HSC"},
			Bands: []domain.Band{
				{Label: "Rubin band HSC-G", Low: 406.0e-9, High: 545.0e-9},
				{Label: "Rubin band HSC-R", Low: 543.0e-9, High: 693.0e-9},
			},
		},
	}
}

type selfDescDoc struct {
	Resource struct {
		Type   string `xml:"type,attr"`
		Infos  []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:"value,attr"`
		} `xml:"INFO"`
		Params []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:"value,attr"`
		} `xml:"PARAM"`
		Groups []struct {
			Name   string `xml:"name,attr"`
			Params []struct {
				Name    string `xml:"name,attr"`
				Options []struct {
					Name  string `xml:"name,attr"`
					Value string `xml:"value,attr"`
				} `xml:"VALUES>OPTION"`
			} `xml:"PARAM"`
		} `xml:"GROUP"`
	} `xml:"RESOURCE"`
}

func TestSelfDescription_DeclaresMappingMetadata(t *testing.T) {
	svc := NewSelfDescriptionService(100000)

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, mappedCollection(), "https://example.com/hsc/query"))

	var doc selfDescDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "meta", doc.Resource.Type)

	infos := map[string]string{}
	for _, info := range doc.Resource.Infos {
		infos[info.Name] = info.Value
	}
	assert.Equal(t, "ivo://rubin//ci_hsc_gen3", infos["ivo-id"])
	assert.Equal(t, "Subaru", infos["facility"])

	params := map[string]string{}
	for _, p := range doc.Resource.Params {
		params[p.Name] = p.Value
	}
	assert.Equal(t, "ivo://ivoa.net/std/SIA#query-2.0", params["standardID"])
	assert.Equal(t, "https://example.com/hsc/query", params["accessURL"])
}

// Every value the self-description enumerates must round-trip through the
// parameter validator for the same collection.
func TestSelfDescription_ConsistentWithValidator(t *testing.T) {
	svc := NewSelfDescriptionService(100000)

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, mappedCollection(), "https://example.com/hsc/query"))

	var doc selfDescDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	var input struct {
		Params []struct {
			Name    string
			Options []string
		}
	}
	for _, g := range doc.Resource.Groups {
		if g.Name != "inputParams" {
			continue
		}
		for _, p := range g.Params {
			entry := struct {
				Name    string
				Options []string
			}{Name: p.Name}
			for _, o := range p.Options {
				entry.Options = append(entry.Options, o.Value)
			}
			input.Params = append(input.Params, entry)
		}
	}
	require.NotEmpty(t, input.Params)

	for _, p := range input.Params {
		for _, option := range p.Options {
			values := url.Values{p.Name: []string{option}}
			q, err := siav2.Parse(values)
			require.NoError(t, err, "declared %s option %q must be accepted", p.Name, option)

			if p.Name == "BAND" {
				require.Len(t, q.Band, 1)
				assert.False(t, strings.Contains(option, ","), "band options are space-separated intervals")
			}
		}
	}
}
