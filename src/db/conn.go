package db

import (
	"context"
	"regexp"

	"git.handmade.network/hmn/forumsync/src/config"
	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/perf"
	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// This interface should match both a pgx pool or a pgx transaction.
type ConnOrTx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Both pools and transactions in pgx can begin transactions. For a pool
	// it does the obvious thing; for a transaction it creates a savepoint.
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ ConnOrTx = &pgxpool.Pool{}

// Creates a connection pool for a forumsync Postgres database.
// The resulting pool is safe for concurrent use.
func NewConnPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pgcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, oops.New(err, "invalid postgres config")
	}

	if cfg.MinConn > 0 {
		pgcfg.MinConns = cfg.MinConn
	}
	if cfg.MaxConn > 0 {
		pgcfg.MaxConns = cfg.MaxConn
	}
	pgcfg.ConnConfig.Tracer = multiTracer{
		&tracelog.TraceLog{
			Logger:   zerologadapter.NewLogger(*logging.GlobalLogger()),
			LogLevel: pgxLogLevel(cfg.LogLevel),
		},
		runPerfTracer{},
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgcfg)
	if err != nil {
		return nil, oops.New(err, "failed to create database connection pool")
	}

	return pool, nil
}

type multiTracer []pgx.QueryTracer

var _ pgx.QueryTracer = multiTracer{}

func (mt multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

var reQueryName = regexp.MustCompile("---- (.*)\n")

// Queries may name themselves with a leading "---- Name" line.
func GetQueryName(sql string) (string, bool) {
	m := reQueryName.FindStringSubmatch(sql)
	if m != nil {
		return m[1], true
	}
	return "", false
}

// NameQuery prefixes sql with a name line for GetQueryName.
func NameQuery(name, sql string) string {
	return "---- " + name + "\n" + sql
}

type perfBlockContextKey struct{}

type runPerfTracer struct{}

var _ pgx.QueryTracer = runPerfTracer{}

func (pt runPerfTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	p := perf.ExtractPerf(ctx)
	if p == nil {
		return ctx
	}

	name := "Unknown query"
	if n, ok := GetQueryName(data.SQL); ok {
		name = n
	}
	b := p.StartBlock("SQL", name)
	return context.WithValue(ctx, perfBlockContextKey{}, b)
}

func (pt runPerfTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if b, ok := ctx.Value(perfBlockContextKey{}).(*perf.BlockHandle); ok {
		b.End()
	}
}

func pgxLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelNone
	}
}
