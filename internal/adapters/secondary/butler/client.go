// Package butler implements the REMOTE query engine. The translated query
// is forwarded to the collection's remote butler repository with the
// caller's bearer token, and result rows are decoded incrementally from a
// newline-delimited JSON stream.
package butler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
)

const queryPath = "/siav2/query"

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireQuery is the JSON descriptor sent to the remote repository. Interval
// and position constraints keep their DALI string serialization so open
// bounds survive the trip (JSON has no Inf).
type wireQuery struct {
	Pos        []string `json:"pos,omitempty"`
	Time       []string `json:"time,omitempty"`
	Band       []string `json:"band,omitempty"`
	ExpTime    []string `json:"exptime,omitempty"`
	Calib      []int    `json:"calib,omitempty"`
	Instrument []string `json:"instrument,omitempty"`
	MaxRec     int      `json:"maxrec"`
}

func encodeQuery(query *domain.Query, maxrec int) wireQuery {
	wq := wireQuery{
		Calib:      query.Calib,
		Instrument: query.Instruments,
		// One past the cap so truncation is detectable client-side.
		MaxRec: maxrec + 1,
	}
	for _, p := range query.Positions {
		wq.Pos = append(wq.Pos, p.String())
	}
	for _, iv := range query.Time {
		wq.Time = append(wq.Time, iv.String())
	}
	for _, iv := range query.Band {
		wq.Band = append(wq.Band, iv.String())
	}
	for _, iv := range query.ExpTime {
		wq.ExpTime = append(wq.ExpTime, iv.String())
	}
	return wq
}

func (c *Client) Query(ctx context.Context, collection *domain.Collection, query *domain.Query, token string) (ports.RowIterator, error) {
	if token == "" {
		return nil, domain.AuthorizationFault("%s", domain.ErrMissingToken.Error())
	}
	if query.MaxRec == nil {
		return nil, fmt.Errorf("query reached the engine without a resolved record limit")
	}
	maxrec := *query.MaxRec

	body, err := json.Marshal(encodeQuery(query, maxrec))
	if err != nil {
		return nil, fmt.Errorf("encode remote query: %w", err)
	}

	url := strings.TrimSuffix(collection.Repository, "/") + queryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create remote query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("Authorization", "Bearer "+token)

	log.WithFields(log.Fields{
		"collection": collection.Identifier(),
		"url":        url,
	}).Debug("forwarding query to remote butler")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.ServerFault(err, "remote butler request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, faultFromStatus(resp)
	}

	return &rowIterator{
		body:       resp.Body,
		dec:        json.NewDecoder(resp.Body),
		maxrec:     maxrec,
		collection: collection,
	}, nil
}

func faultFromStatus(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(detail))
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.AuthorizationFault("remote butler rejected the token: %s", msg)
	case http.StatusBadRequest:
		return domain.UsageFault("remote butler rejected the query: %s", msg)
	default:
		return domain.ServerFault(nil, "remote butler returned %s: %s", resp.Status, msg)
	}
}

// wireRecord is one result row as serialized by the remote repository,
// keyed by the ObsCore column names.
type wireRecord struct {
	DataproductType string   `json:"dataproduct_type"`
	CalibLevel      int      `json:"calib_level"`
	ObsCollection   string   `json:"obs_collection"`
	ObsID           string   `json:"obs_id"`
	ObsPublisherDID string   `json:"obs_publisher_did"`
	AccessURL       string   `json:"access_url"`
	AccessFormat    string   `json:"access_format"`
	TargetName      string   `json:"target_name"`
	SRA             float64  `json:"s_ra"`
	SDec            float64  `json:"s_dec"`
	SFov            float64  `json:"s_fov"`
	SRegion         string   `json:"s_region"`
	SResolution     *float64 `json:"s_resolution"`
	TMin            float64  `json:"t_min"`
	TMax            float64  `json:"t_max"`
	TExpTime        float64  `json:"t_exptime"`
	EmMin           float64  `json:"em_min"`
	EmMax           float64  `json:"em_max"`
	EmResPower      *float64 `json:"em_res_power"`
	OUCD            string   `json:"o_ucd"`
	PolStates       string   `json:"pol_states"`
	FacilityName    string   `json:"facility_name"`
	InstrumentName  string   `json:"instrument_name"`
}

func (wr *wireRecord) toDomain() domain.Record {
	return domain.Record{
		DataproductType: wr.DataproductType,
		CalibLevel:      wr.CalibLevel,
		ObsCollection:   wr.ObsCollection,
		ObsID:           wr.ObsID,
		ObsPublisherDID: wr.ObsPublisherDID,
		AccessURL:       wr.AccessURL,
		AccessFormat:    wr.AccessFormat,
		TargetName:      wr.TargetName,
		SRA:             wr.SRA,
		SDec:            wr.SDec,
		SFov:            wr.SFov,
		SRegion:         wr.SRegion,
		SResolution:     wr.SResolution,
		TMin:            wr.TMin,
		TMax:            wr.TMax,
		TExpTime:        wr.TExpTime,
		EmMin:           wr.EmMin,
		EmMax:           wr.EmMax,
		EmResPower:      wr.EmResPower,
		OUCD:            wr.OUCD,
		PolStates:       wr.PolStates,
		FacilityName:    wr.FacilityName,
		InstrumentName:  wr.InstrumentName,
	}
}

type rowIterator struct {
	body       io.ReadCloser
	dec        *json.Decoder
	collection *domain.Collection
	maxrec     int
	count      int
	current    domain.Record
	overflow   bool
	err        error
}

func (it *rowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	var wr wireRecord
	if err := it.dec.Decode(&wr); err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = fmt.Errorf("decode remote butler row: %w", err)
		}
		return false
	}
	if it.count >= it.maxrec {
		it.overflow = true
		return false
	}
	it.current = wr.toDomain()
	it.current.ApplyDatalink(it.collection)
	it.count++
	return true
}

func (it *rowIterator) Record() *domain.Record { return &it.current }
func (it *rowIterator) Overflowed() bool       { return it.overflow }
func (it *rowIterator) Err() error             { return it.err }
func (it *rowIterator) Close()                 { _ = it.body.Close() }
