package store

import (
	"context"
	"errors"
	"sort"

	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/utils"
	"github.com/google/uuid"
)

var ErrTxDone = errors.New("transaction has already been committed or rolled back")

type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

/*
A Change describes what one commit did to one entity. Fields lists every
field assigned during the transaction, in the order they were first assigned.
*/
type Change struct {
	Op       Op
	Kind     models.Kind
	ObjectID uuid.UUID
	Entity   models.Entity
	Fields   []string
}

/*
A Tx is a unit of work on a store. Changes to the graph apply immediately, so
fetches within the transaction see them, and are undone if the transaction
rolls back or fails to commit.
*/
type Tx struct {
	s    *Store
	done bool

	undo    []func()
	touched map[uuid.UUID]*touch
	order   []uuid.UUID
}

type touch struct {
	entity  models.Entity
	op      Op
	dropped bool // inserted and then deleted in the same transaction
	fields  []string
}

func (tx *Tx) check() error {
	if tx.done {
		return ErrTxDone
	}
	return nil
}

func (tx *Tx) Store() *Store {
	return tx.s
}

func (tx *Tx) touch(e models.Entity, op Op, field string) {
	oid := e.ObjectID()
	t, ok := tx.touched[oid]
	if !ok {
		t = &touch{entity: e, op: op}
		tx.touched[oid] = t
		tx.order = append(tx.order, oid)
	}

	switch op {
	case OpDelete:
		if t.op == OpInsert {
			t.dropped = true
		}
		t.op = OpDelete
	case OpUpdate:
		if t.op == OpDelete || t.dropped {
			return
		}
	}

	if field != "" {
		for _, f := range t.fields {
			if f == field {
				return
			}
		}
		t.fields = append(t.fields, field)
	}
}

// Insert adds a new, empty entity to the store and returns it.
func Insert[T any, PT interface {
	*T
	models.Entity
}](tx *Tx) (PT, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	e := PT(new(T))
	// Version 7 IDs sort in creation order, so backends can load in store order.
	e.EntityBase().OID = uuid.Must(uuid.NewV7())

	t := tx.s.table(e.Kind())
	t.append(e)
	tx.undo = append(tx.undo, func() { t.remove(e) })
	tx.touch(e, OpInsert, "")

	return e, nil
}

/*
Set assigns v to the field of e that dst points at, and records the
assignment as a change to e. It records a change even when v equals the
current value; callers that want quiet re-scrapes compare first.
*/
func Set[V any](tx *Tx, e models.Entity, field string, dst *V, v V) error {
	if err := tx.check(); err != nil {
		return err
	}

	old := *dst
	*dst = v
	tx.undo = append(tx.undo, func() { *dst = old })
	tx.touch(e, OpUpdate, field)

	return nil
}

// Delete removes e from the store. References to e held by other entities
// are left alone; reassign them first.
func (tx *Tx) Delete(e models.Entity) error {
	if err := tx.check(); err != nil {
		return err
	}

	t := tx.s.table(e.Kind())
	i, ok := t.remove(e)
	if !ok {
		return nil
	}
	tx.undo = append(tx.undo, func() { t.insertAt(i, e) })
	tx.touch(e, OpDelete, "")

	return nil
}

// FetchAll returns every entity of a kind, in insertion order.
func FetchAll[E models.Entity](tx *Tx) ([]E, error) {
	return FetchWhere(tx, func(E) bool { return true })
}

func FetchWhere[E models.Entity](tx *Tx, pred func(E) bool) ([]E, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	var result []E
	for _, row := range tx.s.table(models.KindOf[E]()).rows {
		e := row.(E)
		if pred(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

/*
FetchIn returns every entity whose key is in keys, in insertion order. Keys
are matched a batch at a time, the same way a backend would have to query
them.
*/
func FetchIn[E models.Entity, K comparable](tx *Tx, keyOf func(E) K, keys []K) ([]E, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	t := tx.s.table(models.KindOf[E]())
	found := make(map[uuid.UUID]E)
	for _, chunk := range utils.Chunk(keys, tx.s.opts.BatchSize) {
		wanted := make(map[K]struct{}, len(chunk))
		for _, k := range chunk {
			wanted[k] = struct{}{}
		}
		for _, row := range t.rows {
			e := row.(E)
			if _, ok := wanted[keyOf(e)]; ok {
				found[e.ObjectID()] = e
			}
		}
	}

	result := make([]E, 0, len(found))
	for _, e := range found {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return t.pos[result[i].ObjectID()] < t.pos[result[j].ObjectID()]
	})
	return result, nil
}

func (tx *Tx) changes() ([]Change, *Changeset) {
	cs := &Changeset{Deleted: make(map[models.Kind][]uuid.UUID)}
	var changes []Change

	for _, oid := range tx.order {
		t := tx.touched[oid]
		if t.dropped {
			continue
		}

		changes = append(changes, Change{
			Op:       t.op,
			Kind:     t.entity.Kind(),
			ObjectID: oid,
			Entity:   t.entity,
			Fields:   t.fields,
		})

		if t.op == OpDelete {
			cs.Deleted[t.entity.Kind()] = append(cs.Deleted[t.entity.Kind()], oid)
		} else {
			cs.Saved.Append(t.entity)
		}
	}
	if len(cs.Deleted) == 0 {
		cs.Deleted = nil
	}

	return changes, cs
}

/*
Commit writes the transaction's changes to the backend. If the backend fails,
the transaction is rolled back and the backend's error is returned wrapped.
Subscribers hear about the changes only once they have been saved. A
transaction that changed nothing saves and publishes nothing.
*/
func (tx *Tx) Commit(ctx context.Context) error {
	if err := tx.check(); err != nil {
		return err
	}

	changes, cs := tx.changes()
	if len(changes) == 0 {
		tx.finish()
		return nil
	}

	if tx.s.backend != nil {
		if err := tx.s.backend.Save(ctx, cs); err != nil {
			tx.rollback()
			return oops.New(err, "failed to save %d changes", len(changes))
		}
	}
	tx.finish()

	logging.ExtractLogger(ctx).Debug().
		Int("changes", len(changes)).
		Int("saved", cs.Saved.Len()).
		Msg("committed transaction")

	tx.s.publish(changes)
	return nil
}

// Rollback undoes everything the transaction did to the graph.
func (tx *Tx) Rollback() error {
	if err := tx.check(); err != nil {
		return err
	}
	tx.rollback()
	return nil
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.finish()
}

func (tx *Tx) finish() {
	tx.done = true
	tx.undo = nil
	if tx.s.tx == tx {
		tx.s.tx = nil
	}
}
