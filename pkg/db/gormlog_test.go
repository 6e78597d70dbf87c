package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devsergyo/sales-commissions/pkg/logger"
)

func traceInto(t *testing.T, slow time.Duration, begin time.Time, err error) string {
	t.Helper()
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(logger.Options{ServiceName: "db-test", Output: &buf}), slow)
	q.Trace(context.Background(), begin, func() (string, int64) {
		return "SELECT * FROM sales WHERE sale_date = '2024-01-15'", 3
	}, err)
	return buf.String()
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	out := traceInto(t, time.Second, time.Now(), errors.New("relation does not exist"))
	assert.Contains(t, out, "db.query_failed")
	assert.Contains(t, out, "sale_date")
}

func TestQueryLoggerSkipsRecordNotFoundAndFastQueries(t *testing.T) {
	assert.Empty(t, traceInto(t, time.Second, time.Now(), gorm.ErrRecordNotFound))
	assert.Empty(t, traceInto(t, time.Second, time.Now(), nil))
}

func TestQueryLoggerFlagsSlowQueries(t *testing.T) {
	out := traceInto(t, time.Millisecond, time.Now().Add(-time.Second), nil)
	assert.Contains(t, out, "db.slow_query")
	assert.Contains(t, out, `"rows":3`)
}

func TestQueryLoggerSilentAndNil(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil, time.Second))

	var buf bytes.Buffer
	q := newQueryLogger(logger.New(logger.Options{Output: &buf}), time.Millisecond).LogMode(gormlogger.Silent)
	q.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, errors.New("x"))
	assert.Empty(t, buf.String())
}
