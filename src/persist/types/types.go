package types

import (
	"context"
	"time"
)

// Execer runs a statement inside a migration's transaction. Both backends
// provide one, so migrations are written once in portable SQL.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

type Migration interface {
	Version() MigrationVersion
	Name() string
	Description() string
	Up(ctx context.Context, tx Execer) error
	Down(ctx context.Context, tx Execer) error
}

type MigrationVersion time.Time

func (v MigrationVersion) String() string {
	return time.Time(v).Format(time.RFC3339)
}

func (v MigrationVersion) Before(other MigrationVersion) bool {
	return time.Time(v).Before(time.Time(other))
}

func (v MigrationVersion) Equal(other MigrationVersion) bool {
	return time.Time(v).Equal(time.Time(other))
}

func (v MigrationVersion) IsZero() bool {
	return time.Time(v).IsZero()
}

func ParseMigrationVersion(s string) (MigrationVersion, error) {
	if s == "" {
		return MigrationVersion{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return MigrationVersion{}, err
	}
	return MigrationVersion(t.UTC()), nil
}
