package siav2

import (
	"math"
	"strconv"
	"strings"

	"sia-service/internal/core/domain"
)

// parseIntervals validates a repeatable interval parameter (TIME, BAND,
// EXPTIME). Each value is either a scalar or a pair of bounds; open bounds
// use -Inf / +Inf per the DALI interval serialization.
func parseIntervals(name string, raws []string) ([]domain.Interval, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	intervals := make([]domain.Interval, 0, len(raws))
	for _, raw := range raws {
		iv, err := parseInterval(name, raw)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func parseInterval(name, raw string) (domain.Interval, error) {
	tokens := strings.Fields(raw)
	switch len(tokens) {
	case 1:
		v, err := parseFloat(tokens[0], true)
		if err != nil {
			return domain.Interval{}, err
		}
		return domain.Interval{Lo: v, Hi: v}, nil
	case 2:
		vals, err := parseFloats(tokens, true)
		if err != nil {
			return domain.Interval{}, err
		}
		if vals[0] > vals[1] {
			return domain.Interval{}, domain.UsageFault(
				"%s interval bounds out of order in '%s'", name, raw)
		}
		return domain.Interval{Lo: vals[0], Hi: vals[1]}, nil
	default:
		return domain.Interval{}, domain.UsageFault(
			"%s must be a scalar or a two-value interval, got '%s'", name, raw)
	}
}

// parseFloat converts one numeric token, optionally admitting open bounds.
// The error message mirrors the float conversion failure clients see from
// other SIAv2 services.
func parseFloat(token string, allowInf bool) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, domain.UsageFault("could not convert string to float: '%s'", token)
	}
	if math.IsNaN(v) {
		return 0, domain.UsageFault("could not convert string to float: '%s'", token)
	}
	if !allowInf && math.IsInf(v, 0) {
		return 0, domain.UsageFault("value must be finite, got '%s'", token)
	}
	return v, nil
}

func parseFloats(tokens []string, allowInf bool) ([]float64, error) {
	vals := make([]float64, len(tokens))
	for i, token := range tokens {
		v, err := parseFloat(token, allowInf)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
