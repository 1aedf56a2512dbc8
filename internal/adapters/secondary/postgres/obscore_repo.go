// Package postgres implements the DIRECT query engine: SIAv2 queries are
// translated into SQL against the collection's ObsCore-mapped table and
// rows are streamed straight off the database cursor.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
)

const defaultTable = "obscore"

type obsCoreRepo struct {
	pool *pgxpool.Pool
}

// NewObsCoreRepository creates the query engine for DIRECT collections.
func NewObsCoreRepository(pool *pgxpool.Pool) ports.QueryEngine {
	return &obsCoreRepo{pool: pool}
}

// NewAvailabilityProber creates the availability prober for DIRECT
// collections, which simply pings the pool.
func NewAvailabilityProber(pool *pgxpool.Pool) ports.AvailabilityProber {
	return &obsCoreRepo{pool: pool}
}

func (r *obsCoreRepo) Probe(ctx context.Context, _ *domain.Collection) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping obscore database: %w", err)
	}
	return nil
}

func (r *obsCoreRepo) Query(ctx context.Context, collection *domain.Collection, query *domain.Query, _ string) (ports.RowIterator, error) {
	if query.MaxRec == nil {
		return nil, fmt.Errorf("query reached the engine without a resolved record limit")
	}
	maxrec := *query.MaxRec

	sql, args := buildQuery(tableFor(collection), query)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.ServerFault(err, "obscore query failed: %v", err)
	}
	return &rowIterator{rows: rows, maxrec: maxrec, collection: collection}, nil
}

func tableFor(collection *domain.Collection) string {
	if collection.Mapping != nil && collection.Mapping.Table != "" {
		return collection.Mapping.Table
	}
	return defaultTable
}

// selectColumns mirrors domain.RecordFields in order.
const selectColumns = `coalesce(dataproduct_type, ''), calib_level, coalesce(obs_collection, ''),
	coalesce(obs_id, ''), coalesce(obs_publisher_did, ''), coalesce(access_url, ''),
	coalesce(access_format, ''), coalesce(target_name, ''), s_ra, s_dec, coalesce(s_fov, 0),
	coalesce(s_region, ''), s_resolution, t_min, t_max, coalesce(t_exptime, 0),
	em_min, em_max, em_res_power, coalesce(o_ucd, ''), coalesce(pol_states, ''),
	coalesce(facility_name, ''), coalesce(instrument_name, '')`

// buildQuery translates the descriptor into SQL. Repeated values of one
// parameter OR together; distinct parameters AND together, per the SIAv2
// query semantics. The limit is one past the record cap so truncation is
// detectable.
func buildQuery(table string, query *domain.Query) (string, []any) {
	b := &clauseBuilder{}

	var posClauses []string
	for _, pos := range query.Positions {
		posClauses = append(posClauses, b.positionClause(pos))
	}
	b.addGroup(posClauses)

	b.addGroup(b.overlapClauses(query.Time, "t_min", "t_max"))
	b.addGroup(b.overlapClauses(query.Band, "em_min", "em_max"))
	b.addGroup(b.containClauses(query.ExpTime, "t_exptime"))

	if len(query.Calib) > 0 {
		b.add(fmt.Sprintf("calib_level = ANY(%s)", b.arg(query.Calib)))
	}
	if len(query.Instruments) > 0 {
		b.add(fmt.Sprintf("instrument_name = ANY(%s)", b.arg(query.Instruments)))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", selectColumns, table)
	if len(b.clauses) > 0 {
		sql += " WHERE " + strings.Join(b.clauses, " AND ")
	}
	sql += fmt.Sprintf(" LIMIT %s", b.arg(*query.MaxRec+1))
	return sql, b.args
}

type clauseBuilder struct {
	clauses []string
	args    []any
}

func (b *clauseBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *clauseBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *clauseBuilder) addGroup(group []string) {
	switch len(group) {
	case 0:
	case 1:
		b.add(group[0])
	default:
		b.add("(" + strings.Join(group, " OR ") + ")")
	}
}

func (b *clauseBuilder) positionClause(pos domain.Position) string {
	switch pos.Shape {
	case domain.ShapeCircle:
		c := pos.Circle
		// Great-circle separation via the haversine formula on the record's
		// reference position.
		return fmt.Sprintf(
			"degrees(2 * asin(sqrt(power(sin(radians(%[1]s - s_dec) / 2), 2)"+
				" + cos(radians(s_dec)) * cos(radians(%[1]s))"+
				" * power(sin(radians(%[2]s - s_ra) / 2), 2)))) <= %[3]s",
			b.arg(c.Center.Dec), b.arg(c.Center.RA), b.arg(c.Radius))
	case domain.ShapeRange:
		return b.rangeClause(pos.Range)
	case domain.ShapePolygon:
		// Approximated by the polygon's bounding box; exact containment is
		// left to the client on the returned s_region.
		return b.rangeClause(pos.Polygon.Bounds())
	default:
		return "FALSE"
	}
}

func (b *clauseBuilder) rangeClause(r domain.CoordRange) string {
	var parts []string
	if !isNegInf(r.RAMin) {
		parts = append(parts, fmt.Sprintf("s_ra >= %s", b.arg(r.RAMin)))
	}
	if !isPosInf(r.RAMax) {
		parts = append(parts, fmt.Sprintf("s_ra <= %s", b.arg(r.RAMax)))
	}
	if !isNegInf(r.DecMin) {
		parts = append(parts, fmt.Sprintf("s_dec >= %s", b.arg(r.DecMin)))
	}
	if !isPosInf(r.DecMax) {
		parts = append(parts, fmt.Sprintf("s_dec <= %s", b.arg(r.DecMax)))
	}
	if len(parts) == 0 {
		return "TRUE"
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// overlapClauses matches records whose [loCol, hiCol] interval overlaps any
// of the requested intervals.
func (b *clauseBuilder) overlapClauses(intervals []domain.Interval, loCol, hiCol string) []string {
	var clauses []string
	for _, iv := range intervals {
		if iv.Unbounded() {
			clauses = append(clauses, fmt.Sprintf("%s IS NOT NULL", loCol))
			continue
		}
		var parts []string
		if !isNegInf(iv.Lo) {
			parts = append(parts, fmt.Sprintf("%s >= %s", hiCol, b.arg(iv.Lo)))
		}
		if !isPosInf(iv.Hi) {
			parts = append(parts, fmt.Sprintf("%s <= %s", loCol, b.arg(iv.Hi)))
		}
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return clauses
}

// containClauses matches records whose scalar column falls inside any of
// the requested intervals.
func (b *clauseBuilder) containClauses(intervals []domain.Interval, col string) []string {
	var clauses []string
	for _, iv := range intervals {
		if iv.Unbounded() {
			clauses = append(clauses, fmt.Sprintf("%s IS NOT NULL", col))
			continue
		}
		var parts []string
		if !isNegInf(iv.Lo) {
			parts = append(parts, fmt.Sprintf("%s >= %s", col, b.arg(iv.Lo)))
		}
		if !isPosInf(iv.Hi) {
			parts = append(parts, fmt.Sprintf("%s <= %s", col, b.arg(iv.Hi)))
		}
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return clauses
}

func isNegInf(v float64) bool { return v < 0 && v*2 == v }
func isPosInf(v float64) bool { return v > 0 && v*2 == v }

type rowIterator struct {
	rows       pgx.Rows
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
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	if it.count >= it.maxrec {
		// The limit+1 sentinel row: the backend had more to give.
		it.overflow = true
		return false
	}
	rec, err := scanRecord(it.rows)
	if err != nil {
		it.err = err
		return false
	}
	rec.ApplyDatalink(it.collection)
	it.current = *rec
	it.count++
	return true
}

func (it *rowIterator) Record() *domain.Record { return &it.current }
func (it *rowIterator) Overflowed() bool       { return it.overflow }
func (it *rowIterator) Err() error             { return it.err }
func (it *rowIterator) Close()                 { it.rows.Close() }

func scanRecord(rows pgx.Rows) (*domain.Record, error) {
	var rec domain.Record
	err := rows.Scan(
		&rec.DataproductType, &rec.CalibLevel, &rec.ObsCollection,
		&rec.ObsID, &rec.ObsPublisherDID, &rec.AccessURL,
		&rec.AccessFormat, &rec.TargetName, &rec.SRA, &rec.SDec, &rec.SFov,
		&rec.SRegion, &rec.SResolution, &rec.TMin, &rec.TMax, &rec.TExpTime,
		&rec.EmMin, &rec.EmMax, &rec.EmResPower, &rec.OUCD, &rec.PolStates,
		&rec.FacilityName, &rec.InstrumentName,
	)
	if err != nil {
		return nil, fmt.Errorf("scan obscore row: %w", err)
	}
	return &rec, nil
}
