// Package siav2 parses and validates IVOA SIAv2 query parameters into the
// normalized query descriptor used by the query engines.
package siav2

import (
	"net/url"
	"strconv"
	"strings"

	"sia-service/internal/core/domain"
)

// ResponseFormats lists the accepted RESPONSEFORMAT values. Only VOTable
// output is supported.
var ResponseFormats = map[string]struct{}{
	"votable":                   {},
	"application/x-votable":     {},
	"application/x-votable+xml": {},
}

// singleParams may carry at most one value per request.
var singleParams = map[string]struct{}{
	"MAXREC":         {},
	"RESPONSEFORMAT": {},
}

// deferredParams are defined by the SIAv2 standard but not implemented by
// this service. Requests using them fail clearly instead of being silently
// ignored.
var deferredParams = map[string]struct{}{
	"ID":         {},
	"TARGET":     {},
	"FACILITY":   {},
	"COLLECTION": {},
	"POL":        {},
	"FOV":        {},
	"SPATRES":    {},
	"TIMERES":    {},
	"SPECRP":     {},
	"DPTYPE":     {},
	"FORMAT":     {},
	"UPLOAD":     {},
}

// Parse validates raw query parameters against the SIAv2 grammar and
// produces the normalized descriptor. Parameter names are matched without
// regard to case; names outside the SIAv2 vocabulary are ignored per the
// DALI custom-parameter rule. An empty parameter set is treated as MAXREC=0
// so the service answers with its self-description.
func Parse(values url.Values) (*domain.Query, error) {
	merged := make(url.Values, len(values))
	for key, vals := range values {
		upper := strings.ToUpper(key)
		merged[upper] = append(merged[upper], vals...)
	}

	for name := range deferredParams {
		if _, ok := merged[name]; ok {
			return nil, domain.UsageFault("Parameter %s is not supported by this service", name)
		}
	}
	for name := range singleParams {
		if len(merged[name]) > 1 {
			return nil, domain.UsageFault("Only one value of %s is allowed", name)
		}
	}

	q := &domain.Query{}

	for _, raw := range merged["POS"] {
		pos, err := parsePos(raw)
		if err != nil {
			return nil, err
		}
		q.Positions = append(q.Positions, pos)
	}

	var err error
	if q.Time, err = parseIntervals("TIME", merged["TIME"]); err != nil {
		return nil, err
	}
	if q.Band, err = parseIntervals("BAND", merged["BAND"]); err != nil {
		return nil, err
	}
	if q.ExpTime, err = parseIntervals("EXPTIME", merged["EXPTIME"]); err != nil {
		return nil, err
	}

	for _, raw := range merged["CALIB"] {
		level, err := parseCalib(raw)
		if err != nil {
			return nil, err
		}
		q.Calib = append(q.Calib, level)
	}

	for _, raw := range merged["INSTRUMENT"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			q.Instruments = append(q.Instruments, raw)
		}
	}

	if raw, ok := firstValue(merged, "MAXREC"); ok {
		maxrec, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || maxrec < 0 {
			return nil, domain.UsageFault("MAXREC must be a non-negative integer, got '%s'", raw)
		}
		q.MaxRec = &maxrec
	}

	if raw, ok := firstValue(merged, "RESPONSEFORMAT"); ok {
		format := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := ResponseFormats[format]; !ok {
			return nil, domain.UsageFault("Unsupported RESPONSEFORMAT '%s'", raw)
		}
		q.ResponseFormat = format
	}

	// A query with no constraints answers with the self-description
	// instead of an unbounded data query.
	if unconstrained(q) {
		zero := 0
		q.MaxRec = &zero
	}

	return q, nil
}

func unconstrained(q *domain.Query) bool {
	return len(q.Positions) == 0 && len(q.Time) == 0 && len(q.Band) == 0 &&
		len(q.ExpTime) == 0 && len(q.Calib) == 0 && len(q.Instruments) == 0 &&
		q.MaxRec == nil
}

func firstValue(values url.Values, key string) (string, bool) {
	vals := values[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func parseCalib(raw string) (int, error) {
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.UsageFault("Validation of 'calib' failed: '%s' is not an integer", raw)
	}
	if level < 0 || level > 3 {
		return 0, domain.UsageFault("Validation of 'calib' failed: level must be between 0 and 3, got %d", level)
	}
	return level, nil
}
