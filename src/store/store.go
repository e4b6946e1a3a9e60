/*
Package store holds the entity graph in memory and writes changes through to
a Backend when a transaction commits.

A Store is not safe for concurrent use. All access to one store must happen
from a single goroutine; see the ingest package's worker for the usual way to
arrange that. Subscribe is the exception and may be called from anywhere.
*/
package store

import (
	"context"
	"sync"

	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"github.com/google/uuid"
)

// The backend a store persists to. A store with a nil backend keeps
// everything in memory.
type Backend interface {
	Load(ctx context.Context) (*models.Dump, error)
	Save(ctx context.Context, changes *Changeset) error
}

/*
Changeset is what one commit writes. Saved holds the full current record of
every entity inserted or updated; rows for those object IDs are replaced
wholesale. The thread tag rows of every saved or deleted forum are replaced
along with it.
*/
type Changeset struct {
	Saved   models.Dump
	Deleted map[models.Kind][]uuid.UUID
}

func (c *Changeset) Empty() bool {
	return c.Saved.Len() == 0 && len(c.Deleted) == 0
}

type Options struct {
	// The most identifiers a single fetch or save statement may carry.
	BatchSize int
}

const DefaultBatchSize = 500

type Store struct {
	backend Backend
	opts    Options

	tables map[models.Kind]*table
	tx     *Tx

	subMu   sync.Mutex
	subs    map[int]func([]Change)
	nextSub int
}

func New(backend Backend, opts Options) *Store {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	s := &Store{
		backend: backend,
		opts:    opts,
		tables:  make(map[models.Kind]*table, len(models.Kinds)),
		subs:    make(map[int]func([]Change)),
	}
	for _, kind := range models.Kinds {
		s.tables[kind] = newTable()
	}
	return s
}

// Open creates a store and loads everything the backend has into it.
func Open(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	s := New(backend, opts)
	if backend == nil {
		return s, nil
	}

	dump, err := backend.Load(ctx)
	if err != nil {
		return nil, oops.New(err, "failed to load store")
	}
	entities, err := dump.Entities()
	if err != nil {
		return nil, oops.New(err, "failed to rebuild entities from stored rows")
	}
	for _, e := range entities {
		s.tables[e.Kind()].append(e)
	}

	return s, nil
}

func (s *Store) Options() Options {
	return s.opts
}

func (s *Store) table(kind models.Kind) *table {
	t, ok := s.tables[kind]
	if !ok {
		panic(oops.New(nil, "no table for entity kind %q", kind))
	}
	return t
}

// Count returns how many entities of a kind the store holds.
func (s *Store) Count(kind models.Kind) int {
	return len(s.table(kind).rows)
}

// Dump returns the records of every entity in the store.
func (s *Store) Dump() *models.Dump {
	var d models.Dump
	for _, kind := range models.Kinds {
		for _, e := range s.tables[kind].rows {
			d.Append(e)
		}
	}
	return &d
}

/*
Begin starts a transaction. Only one transaction may be open at a time; it
must be finished with Commit or Rollback before the next one begins.
*/
func (s *Store) Begin() *Tx {
	if s.tx != nil {
		panic(oops.New(nil, "a transaction is already open on this store"))
	}
	tx := &Tx{
		s:       s,
		touched: make(map[uuid.UUID]*touch),
	}
	s.tx = tx
	return tx
}

/*
Subscribe registers f to be called with the changes of every successful
commit. f runs on the committing goroutine, after the commit has finished, so
it may read the store but must not begin a transaction. The returned function
removes the subscription.
*/
func (s *Store) Subscribe(f func([]Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = f

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(changes []Change) {
	s.subMu.Lock()
	subs := make([]func([]Change), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if f, ok := s.subs[id]; ok {
			subs = append(subs, f)
		}
	}
	s.subMu.Unlock()

	for _, f := range subs {
		f(changes)
	}
}

// Rows of one kind, in insertion order.
type table struct {
	rows []models.Entity
	pos  map[uuid.UUID]int
}

func newTable() *table {
	return &table{pos: make(map[uuid.UUID]int)}
}

func (t *table) append(e models.Entity) {
	t.pos[e.ObjectID()] = len(t.rows)
	t.rows = append(t.rows, e)
}

func (t *table) insertAt(i int, e models.Entity) {
	t.rows = append(t.rows, nil)
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = e
	t.reindex(i)
}

func (t *table) remove(e models.Entity) (int, bool) {
	i, ok := t.pos[e.ObjectID()]
	if !ok {
		return 0, false
	}
	copy(t.rows[i:], t.rows[i+1:])
	t.rows[len(t.rows)-1] = nil
	t.rows = t.rows[:len(t.rows)-1]
	delete(t.pos, e.ObjectID())
	t.reindex(i)
	return i, true
}

func (t *table) reindex(from int) {
	for i := from; i < len(t.rows); i++ {
		t.pos[t.rows[i].ObjectID()] = i
	}
}
