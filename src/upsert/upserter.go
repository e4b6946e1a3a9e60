/*
Package upsert reconciles scraped snapshots into a store.

Every upsert follows the same steps: gather the identifiers the snapshot
mentions, fetch the matching entities in one batch per kind, insert whatever
is missing, then assign only the fields whose values actually changed. A
second upsert of the same snapshot therefore changes nothing.
*/
package upsert

import (
	"time"

	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/google/uuid"
)

type Options struct {
	// How many posts the forum shows per thread page.
	PostsPerPage int
}

const DefaultPostsPerPage = 40

func (o Options) postsPerPage() int {
	if o.PostsPerPage <= 0 {
		return DefaultPostsPerPage
	}
	return o.PostsPerPage
}

// Every entity an upsert created or changed, in the order it first did so.
type TouchedSet struct {
	entities []models.Entity
	seen     map[uuid.UUID]bool
}

func (t *TouchedSet) Touched() []models.Entity {
	return t.entities
}

func (t *TouchedSet) add(e models.Entity) {
	if t.seen == nil {
		t.seen = make(map[uuid.UUID]bool)
	}
	if t.seen[e.ObjectID()] {
		return
	}
	t.seen[e.ObjectID()] = true
	t.entities = append(t.entities, e)
}

/*
upserter carries one upsert's transaction and remembers the first store
error. Once an error has happened every helper is a no-op, so upserts check
u.err only where they would otherwise use an entity that may not exist.
*/
type upserter struct {
	tx      *store.Tx
	opts    Options
	err     error
	touched *TouchedSet
}

func newUpserter(tx *store.Tx, opts Options) *upserter {
	return &upserter{tx: tx, opts: opts, touched: &TouchedSet{}}
}

func (u *upserter) fail(err error, msg string) {
	if u.err == nil && err != nil {
		u.err = oops.New(err, "%s", msg)
	}
}

func fetchIn[E models.Entity, K comparable](u *upserter, keyOf func(E) K, keys []K) []E {
	if u.err != nil {
		return nil
	}
	result, err := store.FetchIn(u.tx, keyOf, keys)
	u.fail(err, "failed to fetch "+string(models.KindOf[E]()))
	return result
}

func fetchWhere[E models.Entity](u *upserter, pred func(E) bool) []E {
	if u.err != nil {
		return nil
	}
	result, err := store.FetchWhere(u.tx, pred)
	u.fail(err, "failed to fetch "+string(models.KindOf[E]()))
	return result
}

func insert[T any, PT interface {
	*T
	models.Entity
}](u *upserter) PT {
	if u.err != nil {
		return nil
	}
	e, err := store.Insert[T, PT](u.tx)
	if err != nil {
		u.fail(err, "failed to insert "+string(models.KindOf[PT]()))
		return nil
	}
	u.touched.add(e)
	return e
}

func (u *upserter) delete(e models.Entity) {
	if u.err != nil {
		return
	}
	u.fail(u.tx.Delete(e), "failed to delete "+string(e.Kind()))
}

func assign[V any](u *upserter, e models.Entity, field string, dst *V, v V) {
	if u.err != nil {
		return
	}
	if err := store.Set(u.tx, e, field, dst, v); err != nil {
		u.fail(err, "failed to set "+string(e.Kind())+"."+field)
		return
	}
	u.touched.add(e)
}

// set assigns v to *dst only if it differs from the current value.
func set[V comparable](u *upserter, e models.Entity, field string, dst *V, v V) {
	if *dst == v {
		return
	}
	assign(u, e, field, dst, v)
}

func setTime(u *upserter, e models.Entity, field string, dst **time.Time, v *time.Time) {
	switch {
	case *dst == nil && v == nil:
		return
	case *dst != nil && v != nil && (*dst).Equal(*v):
		return
	}
	assign(u, e, field, dst, v)
}

func setTags(u *upserter, e models.Entity, field string, dst *[]*models.ThreadTag, v []*models.ThreadTag) {
	if len(*dst) == len(v) {
		same := true
		for i := range v {
			if (*dst)[i] != v[i] {
				same = false
				break
			}
		}
		if same {
			return
		}
	}
	assign(u, e, field, dst, v)
}

func timePtr(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}

/*
Finds or creates the entity for every key. When the store holds more than one
entity with a key, the first one wins. newEntity is called once for each key
that had no match and must give the entity its key.
*/
func resolveByKey[T any, PT interface {
	*T
	models.Entity
}, K comparable](u *upserter, keyOf func(PT) K, keys []K, newEntity func(PT, K)) map[K]PT {
	result := make(map[K]PT, len(keys))
	for _, e := range fetchIn(u, keyOf, keys) {
		k := keyOf(e)
		if _, ok := result[k]; !ok {
			result[k] = e
		}
	}
	for _, k := range keys {
		if _, ok := result[k]; ok {
			continue
		}
		e := insert[T, PT](u)
		if e == nil {
			return result
		}
		newEntity(e, k)
		result[k] = e
	}
	return result
}

func uniq[K comparable](keys []K) []K {
	seen := make(map[K]bool, len(keys))
	result := keys[:0:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			result = append(result, k)
		}
	}
	return result
}
