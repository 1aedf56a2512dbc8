package postgres

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sia-service/internal/core/domain"
)

func limited(maxrec int) *int { return &maxrec }

func TestBuildQuery_Unconstrained(t *testing.T) {
	sql, args := buildQuery("obscore", &domain.Query{MaxRec: limited(1000)})

	assert.True(t, strings.HasPrefix(sql, "SELECT "))
	assert.Contains(t, sql, "FROM obscore")
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LIMIT $1")
	assert.Equal(t, []any{1001}, args)
}

func TestBuildQuery_Circle(t *testing.T) {
	q := &domain.Query{
		Positions: []domain.Position{{
			Shape:  domain.ShapeCircle,
			Circle: domain.Circle{Center: domain.Point{RA: 320.5, Dec: -0.2}, Radius: 0.5},
		}},
		MaxRec: limited(10),
	}
	sql, args := buildQuery("obscore", q)

	assert.Contains(t, sql, "degrees(2 * asin(")
	assert.Contains(t, sql, "<= $3")
	assert.Equal(t, []any{-0.2, 320.5, 0.5, 11}, args)
}

func TestBuildQuery_RangeSkipsInfiniteBounds(t *testing.T) {
	q := &domain.Query{
		Positions: []domain.Position{{
			Shape: domain.ShapeRange,
			Range: domain.CoordRange{RAMin: 10, RAMax: math.Inf(1), DecMin: math.Inf(-1), DecMax: 20},
		}},
		MaxRec: limited(10),
	}
	sql, args := buildQuery("obscore", q)

	assert.Contains(t, sql, "s_ra >= $1")
	assert.Contains(t, sql, "s_dec <= $2")
	assert.NotContains(t, sql, "s_ra <=")
	assert.NotContains(t, sql, "s_dec >=")
	assert.Equal(t, []any{10.0, 20.0, 11}, args)
}

func TestBuildQuery_RepeatedPositionsORTogether(t *testing.T) {
	q := &domain.Query{
		Positions: []domain.Position{
			{Shape: domain.ShapeCircle, Circle: domain.Circle{Center: domain.Point{RA: 10, Dec: 10}, Radius: 1}},
			{Shape: domain.ShapeCircle, Circle: domain.Circle{Center: domain.Point{RA: 20, Dec: 20}, Radius: 1}},
		},
		Calib:  []int{2},
		MaxRec: limited(10),
	}
	sql, _ := buildQuery("obscore", q)

	assert.Contains(t, sql, " OR ")
	assert.Contains(t, sql, ") AND calib_level = ANY(")
}

func TestBuildQuery_TimeOverlap(t *testing.T) {
	q := &domain.Query{
		Time:   []domain.Interval{{Lo: 56000, Hi: 56100}},
		MaxRec: limited(10),
	}
	sql, args := buildQuery("obscore", q)

	// Overlap: the record interval must end after the request starts and
	// start before it ends.
	assert.Contains(t, sql, "t_max >= $1")
	assert.Contains(t, sql, "t_min <= $2")
	assert.Equal(t, []any{56000.0, 56100.0, 11}, args)
}

func TestBuildQuery_OpenTimeInterval(t *testing.T) {
	q := &domain.Query{
		Time:   []domain.Interval{{Lo: 56000, Hi: math.Inf(1)}},
		MaxRec: limited(10),
	}
	sql, args := buildQuery("obscore", q)

	assert.Contains(t, sql, "t_max >= $1")
	assert.NotContains(t, sql, "t_min <=")
	assert.Equal(t, []any{56000.0, 11}, args)
}

func TestBuildQuery_ExpTimeContainment(t *testing.T) {
	q := &domain.Query{
		ExpTime: []domain.Interval{{Lo: 30, Hi: 60}},
		MaxRec:  limited(10),
	}
	sql, _ := buildQuery("obscore", q)

	assert.Contains(t, sql, "t_exptime >= $1")
	assert.Contains(t, sql, "t_exptime <= $2")
}

func TestBuildQuery_CalibAndInstrument(t *testing.T) {
	q := &domain.Query{
		Calib:       []int{2, 3},
		Instruments: []string{"HSC"},
		MaxRec:      limited(10),
	}
	sql, args := buildQuery("obscore", q)

	assert.Contains(t, sql, "calib_level = ANY($1)")
	assert.Contains(t, sql, "instrument_name = ANY($2)")
	assert.Equal(t, []any{[]int{2, 3}, []string{"HSC"}, 11}, args)
}

func TestBuildQuery_PolygonUsesBoundingBox(t *testing.T) {
	q := &domain.Query{
		Positions: []domain.Position{{
			Shape: domain.ShapePolygon,
			Polygon: domain.Polygon{Vertices: []domain.Point{
				{RA: 10, Dec: 0}, {RA: 20, Dec: 0}, {RA: 15, Dec: 10},
			}},
		}},
		MaxRec: limited(10),
	}
	sql, args := buildQuery("obscore", q)

	assert.Contains(t, sql, "s_ra >= $1")
	assert.Contains(t, sql, "s_ra <= $2")
	assert.Contains(t, sql, "s_dec >= $3")
	assert.Contains(t, sql, "s_dec <= $4")
	assert.Equal(t, []any{10.0, 20.0, 0.0, 10.0, 11}, args)
}

func TestTableFor(t *testing.T) {
	c := &domain.Collection{Name: "hsc"}
	assert.Equal(t, "obscore", tableFor(c))

	c.Mapping = &domain.ObsCoreMapping{Table: "dp02.obscore"}
	assert.Equal(t, "dp02.obscore", tableFor(c))
}
