package db

import (
	"context"
	"testing"

	"git.handmade.network/hmn/forumsync/src/perf"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryName(t *testing.T) {
	name, ok := GetQueryName(NameQuery("Save thread", "INSERT INTO thread"))
	assert.True(t, ok)
	assert.Equal(t, "Save thread", name)

	_, ok = GetQueryName("SELECT 1")
	assert.False(t, ok)
}

func TestPerfTracer(t *testing.T) {
	rp := perf.MakeNewRunPerf("posts", "")
	ctx := perf.AttachPerf(context.Background(), rp)

	var tracer pgx.QueryTracer = multiTracer{runPerfTracer{}}
	ctx = tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: NameQuery("Load post", "SELECT * FROM post")})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	require.Len(t, rp.Blocks, 1)
	assert.Equal(t, "SQL", rp.Blocks[0].Category)
	assert.Equal(t, "Load post", rp.Blocks[0].Description)
	assert.False(t, rp.Blocks[0].End.IsZero())

	// Without a run attached nothing is recorded.
	plain := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(plain, nil, pgx.TraceQueryEndData{})
}

func TestPgxLogLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelWarn, pgxLogLevel(zerolog.WarnLevel))
	assert.Equal(t, tracelog.LogLevelDebug, pgxLogLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelNone, pgxLogLevel(zerolog.Disabled))
}
