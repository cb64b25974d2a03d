package extract

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/report"
)

// Quantiles reported for numeric columns in extended mode.
var quantiles = []struct {
	key string
	q   float64
}{
	{report.FactQuantile25, 0.25},
	{report.FactQuantile50, 0.50},
	{report.FactQuantile75, 0.75},
}

// columnQuery issues the statistic queries of one column.
type columnQuery struct {
	db      adapter.Adapter
	from    string
	col     string
	sqlType string
}

func (q columnQuery) numeric(ctx context.Context) ([]report.Fact, error) {
	num := "CAST(" + q.col + " AS DOUBLE)"
	var minV, maxV, mean sql.NullFloat64
	//nolint:gosec // G202: identifiers are quoted
	stmt := "SELECT MIN(" + num + "), MAX(" + num + "), AVG(" + num + ") FROM " + q.from
	if err := q.db.QueryRow(ctx, stmt, nil, &minV, &maxV, &mean); err != nil {
		return nil, err
	}
	return []report.Fact{
		{Key: report.FactMinimum, Value: floatValue(minV)},
		{Key: report.FactMaximum, Value: floatValue(maxV)},
		{Key: report.FactMean, Value: floatValue(mean)},
	}, nil
}

func (q columnQuery) datetime(ctx context.Context) ([]report.Fact, error) {
	var minV, maxV any
	//nolint:gosec // G202: identifiers are quoted
	stmt := "SELECT MIN(" + q.col + "), MAX(" + q.col + ") FROM " + q.from
	if err := q.db.QueryRow(ctx, stmt, nil, &minV, &maxV); err != nil {
		return nil, err
	}
	return []report.Fact{
		{Key: report.FactMinimum, Value: valueOf(minV, q.sqlType)},
		{Key: report.FactMaximum, Value: valueOf(maxV, q.sqlType)},
	}, nil
}

// longerThan reports whether any value's text is longer than limit.
func (q columnQuery) longerThan(ctx context.Context, limit int) (bool, error) {
	var maxLen sql.NullInt64
	//nolint:gosec // G202: identifiers are quoted
	stmt := "SELECT MAX(LENGTH(CAST(" + q.col + " AS VARCHAR))) FROM " + q.from
	if err := q.db.QueryRow(ctx, stmt, nil, &maxLen); err != nil {
		return false, err
	}
	return maxLen.Valid && maxLen.Int64 > int64(limit), nil
}

func (q columnQuery) mostCommon(ctx context.Context, top int, tooLong bool) ([]report.Fact, error) {
	if tooLong {
		return []report.Fact{
			{Key: report.FactMostCommon, Value: report.List(report.String(report.TextTooLongNote))},
			{Key: report.FactCounts, Value: report.List()},
		}, nil
	}

	//nolint:gosec // G202: identifiers are quoted, limit is an int
	stmt := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s ORDER BY 2 DESC, 1 LIMIT %d",
		q.col, q.from, q.col, top)
	rows, err := q.db.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values, counts []report.Value
	for rows.Next() {
		var v any
		var n int64
		if err := rows.Scan(&v, &n); err != nil {
			return nil, fmt.Errorf("failed to scan most common values: %w", err)
		}
		values = append(values, valueOf(v, q.sqlType))
		counts = append(counts, report.Int(n))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return []report.Fact{
		{Key: report.FactMostCommon, Value: report.List(values...)},
		{Key: report.FactCounts, Value: report.List(counts...)},
	}, nil
}

// extended returns the nullability, empty share and distinct count facts
// along with the number of null values.
func (q columnQuery) extended(ctx context.Context, nullable bool, records int64, tooLong bool) ([]report.Fact, int64, error) {
	var nulls int64
	//nolint:gosec // G202: identifiers are quoted
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+q.from+" WHERE "+q.col+" IS NULL", nil, &nulls); err != nil {
		return nil, 0, err
	}

	distinct := report.Null()
	if !tooLong {
		var n int64
		//nolint:gosec // G202: identifiers are quoted
		stmt := "SELECT COUNT(*) FROM (SELECT DISTINCT " + q.col + " FROM " + q.from + ") AS d"
		if err := q.db.QueryRow(ctx, stmt, nil, &n); err != nil {
			return nil, 0, err
		}
		distinct = report.Int(n)
	}

	possible := "NO"
	if nullable {
		possible = "YES"
	}
	var percent float64
	if records > 0 {
		percent = 100 * float64(nulls) / float64(records)
	}

	return []report.Fact{
		{Key: report.FactNullable, Value: report.String(possible)},
		{Key: report.FactEmpty, Value: report.String(fmt.Sprintf("%.2f %%", percent))},
		{Key: report.FactDistinct, Value: distinct},
	}, nulls, nil
}

// quantiles computes the quartiles of the n non-null values by linear
// interpolation between the two closest ranks.
func (q columnQuery) quantiles(ctx context.Context, n int64) ([]report.Fact, error) {
	facts := make([]report.Fact, 0, len(quantiles))
	for _, qt := range quantiles {
		if n <= 0 {
			facts = append(facts, report.Fact{Key: qt.key, Value: report.Null()})
			continue
		}
		pos := qt.q * float64(n-1)
		lo := int64(math.Floor(pos))

		//nolint:gosec // G202: identifiers are quoted, offset is an int
		stmt := fmt.Sprintf("SELECT CAST(%s AS DOUBLE) FROM %s WHERE %s IS NOT NULL ORDER BY %s LIMIT 2 OFFSET %d",
			q.col, q.from, q.col, q.col, lo)
		rows, err := q.db.Query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		var vals []float64
		for rows.Next() {
			var v float64
			if err := rows.Scan(&v); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan quantile: %w", err)
			}
			vals = append(vals, v)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}

		val := report.Null()
		switch len(vals) {
		case 1:
			val = formatFloat(vals[0])
		case 2:
			val = formatFloat(vals[0] + (vals[1]-vals[0])*(pos-float64(lo)))
		}
		facts = append(facts, report.Fact{Key: qt.key, Value: val})
	}
	return facts, nil
}

func floatValue(f sql.NullFloat64) report.Value {
	if !f.Valid {
		return report.Null()
	}
	return formatFloat(f.Float64)
}

func formatFloat(f float64) report.Value {
	return report.String(strconv.FormatFloat(f, 'f', 3, 64))
}

// valueOf converts a scanned driver value to a report value. Floats are
// formatted with three decimals.
func valueOf(v any, sqlType string) report.Value {
	switch x := v.(type) {
	case nil:
		return report.Null()
	case string:
		return report.String(x)
	case []byte:
		return report.String(string(x))
	case bool:
		return report.Bool(x)
	case int64:
		return report.Int(x)
	case int32:
		return report.Int(int64(x))
	case int16:
		return report.Int(int64(x))
	case int8:
		return report.Int(int64(x))
	case int:
		return report.Int(int64(x))
	case uint64:
		return report.Number(json.Number(strconv.FormatUint(x, 10)))
	case uint32:
		return report.Int(int64(x))
	case uint16:
		return report.Int(int64(x))
	case uint8:
		return report.Int(int64(x))
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case time.Time:
		return report.String(formatTime(x, sqlType))
	case fmt.Stringer:
		return report.String(x.String())
	default:
		return report.String(fmt.Sprint(x))
	}
}

// formatTime renders t according to the column type: dates without a clock,
// times without a date.
func formatTime(t time.Time, sqlType string) string {
	typ := strings.ToUpper(sqlType)
	layout := "2006-01-02 15:04:05.999999"
	switch {
	case strings.HasPrefix(typ, "TIME") && !strings.HasPrefix(typ, "TIMESTAMP"):
		layout = "15:04:05.999999"
	case !strings.Contains(typ, "TIME"):
		layout = "2006-01-02"
	}
	return t.Format(layout)
}
