// Package memory is an in-process document store implementing the subset of
// query, update and aggregation operators the repository layer issues. It
// backs the "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/backoffice-api/internal/repository"
)

type DB struct {
	mu     sync.RWMutex
	colls  map[string][]bson.M
	unique map[string][][]string
	faults map[string]error
	closed bool
}

// New returns an empty store enforcing repository.UniqueKeys.
func New() *DB {
	db := &DB{
		colls:  map[string][]bson.M{},
		unique: map[string][][]string{},
		faults: map[string]error{},
	}
	for name, keys := range repository.UniqueKeys {
		for _, fields := range keys {
			db.Unique(name, fields...)
		}
	}
	return db
}

// Unique rejects writes that leave two documents of the named collection
// with equal values for fields. Documents missing one of the fields, or
// holding null or "" in it, are not checked.
func (db *DB) Unique(name string, fields ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.unique[name] = append(db.unique[name], fields)
}

func (db *DB) Collection(name string) repository.Collection {
	return &collection{db: db, name: name}
}

func (db *DB) Ping(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return repository.ErrDisconnected
	}
	return ctx.Err()
}

func (db *DB) Close(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	return nil
}

// Fail makes every subsequent operation on the named collection return err.
// A nil err clears the fault.
func (db *DB) Fail(name string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.faults, name)
		return
	}
	db.faults[name] = err
}

// Len returns the number of documents stored in the named collection.
func (db *DB) Len(name string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.colls[name])
}

type collection struct {
	db   *DB
	name string
}

func (c *collection) Name() string {
	return c.name
}

// check must be called with the lock held.
func (c *collection) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.db.closed {
		return repository.ErrDisconnected
	}
	return c.db.faults[c.name]
}

func (c *collection) InsertOne(ctx context.Context, doc bson.M) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return err
	}

	stored, err := repository.CloneDocument(doc)
	if err != nil {
		return err
	}
	if _, ok := stored["_id"]; !ok {
		stored["_id"] = primitive.NewObjectID()
	}
	if err := c.conflict(c.db.colls[c.name], stored, -1); err != nil {
		return err
	}
	c.db.colls[c.name] = append(c.db.colls[c.name], stored)
	return nil
}

func (c *collection) Find(ctx context.Context, filter bson.M, opts repository.FindOptions) ([]bson.M, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	hits, err := filterDocs(c.db.colls[c.name], filter)
	if err != nil {
		return nil, err
	}
	if len(opts.Sort) > 0 {
		keys, err := sortKeys(opts.Sort)
		if err != nil {
			return nil, err
		}
		sortDocs(hits, keys)
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(hits)) {
			hits = nil
		} else {
			hits = hits[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(hits)) {
		hits = hits[:opts.Limit]
	}
	return cloneAll(hits)
}

func (c *collection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	for _, d := range c.db.colls[c.name] {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return repository.CloneDocument(d)
		}
	}
	return nil, repository.ErrNoDocuments
}

func (c *collection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (repository.UpdateResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return repository.UpdateResult{}, err
	}
	_, res, err := c.updateOne(filter, update, upsert)
	return res, err
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (bson.M, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	doc, _, err := c.updateOne(filter, update, upsert)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, repository.ErrNoDocuments
	}
	return repository.CloneDocument(doc)
}

// updateOne updates the first match, or inserts when upsert is set, and
// returns the stored document. It must be called with the lock held.
func (c *collection) updateOne(filter, update bson.M, upsert bool) (bson.M, repository.UpdateResult, error) {
	docs := c.db.colls[c.name]
	for i, d := range docs {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, repository.UpdateResult{}, err
		}
		if !ok {
			continue
		}
		next, err := updated(d, update, false)
		if err != nil {
			return nil, repository.UpdateResult{}, err
		}
		if err := c.conflict(docs, next, i); err != nil {
			return nil, repository.UpdateResult{}, err
		}
		docs[i] = next
		return next, repository.UpdateResult{Matched: 1, Modified: 1}, nil
	}

	if !upsert {
		return nil, repository.UpdateResult{}, nil
	}
	doc, err := updated(seedFromFilter(filter), update, true)
	if err != nil {
		return nil, repository.UpdateResult{}, err
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	if err := c.conflict(docs, doc, -1); err != nil {
		return nil, repository.UpdateResult{}, err
	}
	c.db.colls[c.name] = append(docs, doc)
	return doc, repository.UpdateResult{UpsertedID: doc["_id"]}, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter, update bson.M) (repository.UpdateResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return repository.UpdateResult{}, err
	}

	var (
		res     repository.UpdateResult
		changed []int
	)
	staged := append([]bson.M(nil), c.db.colls[c.name]...)
	for i, d := range staged {
		ok, err := matches(d, filter)
		if err != nil {
			return repository.UpdateResult{}, err
		}
		if !ok {
			continue
		}
		next, err := updated(d, update, false)
		if err != nil {
			return repository.UpdateResult{}, err
		}
		staged[i] = next
		changed = append(changed, i)
		res.Matched++
		res.Modified++
	}
	for _, i := range changed {
		if err := c.conflict(staged, staged[i], i); err != nil {
			return repository.UpdateResult{}, err
		}
	}
	c.db.colls[c.name] = staged
	return res, nil
}

// conflict reports a duplicate key when doc shares its _id or a unique key
// with any of docs other than the one at index skip.
func (c *collection) conflict(docs []bson.M, doc bson.M, skip int) error {
	for i, other := range docs {
		if i == skip {
			continue
		}
		if equal(other["_id"], doc["_id"]) {
			return fmt.Errorf("%w: _id %v already exists in %s", repository.ErrDuplicateKey, doc["_id"], c.name)
		}
		for _, fields := range c.db.unique[c.name] {
			if sameKey(doc, other, fields) {
				return fmt.Errorf("%w: %s already exists in %s", repository.ErrDuplicateKey, strings.Join(fields, ","), c.name)
			}
		}
	}
	return nil
}

func sameKey(a, b bson.M, fields []string) bool {
	for _, f := range fields {
		av, aok := lookup(a, f)
		bv, bok := lookup(b, f)
		if !aok || !bok || blank(av) || blank(bv) || !equal(av, bv) {
			return false
		}
	}
	return len(fields) > 0
}

func blank(v interface{}) bool {
	s, ok := v.(string)
	return v == nil || (ok && s == "")
}

func (c *collection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	return c.delete(ctx, filter, true)
}

func (c *collection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	return c.delete(ctx, filter, false)
}

func (c *collection) delete(ctx context.Context, filter bson.M, one bool) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return 0, err
	}

	var n int64
	kept := c.db.colls[c.name][:0]
	for _, d := range c.db.colls[c.name] {
		if one && n > 0 {
			kept = append(kept, d)
			continue
		}
		ok, err := matches(d, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
			continue
		}
		kept = append(kept, d)
	}
	c.db.colls[c.name] = kept
	return n, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	if err := c.check(ctx); err != nil {
		return 0, err
	}

	hits, err := filterDocs(c.db.colls[c.name], filter)
	if err != nil {
		return 0, err
	}
	return int64(len(hits)), nil
}

func (c *collection) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	docs := make([]bson.M, len(c.db.colls[c.name]))
	copy(docs, c.db.colls[c.name])
	out, err := runPipeline(docs, pipeline)
	if err != nil {
		return nil, err
	}
	return cloneAll(out)
}

// updated returns a normalized copy of d with update applied.
func updated(d bson.M, update bson.M, inserting bool) (bson.M, error) {
	next, err := repository.CloneDocument(d)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(next, update, inserting); err != nil {
		return nil, err
	}
	return repository.CloneDocument(next)
}

func cloneAll(docs []bson.M) ([]bson.M, error) {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		cp, err := repository.CloneDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

type sortKey struct {
	field string
	desc  bool
}

func sortKeys(spec interface{}) ([]sortKey, error) {
	var keys []sortKey
	add := func(field string, dir interface{}) error {
		n, ok := number(dir)
		if !ok || (n != 1 && n != -1) {
			return fmt.Errorf("invalid sort direction for %s", field)
		}
		keys = append(keys, sortKey{field: field, desc: n < 0})
		return nil
	}
	switch s := spec.(type) {
	case bson.D:
		for _, e := range s {
			if err := add(e.Key, e.Value); err != nil {
				return nil, err
			}
		}
	case bson.M:
		if len(s) > 1 {
			return nil, fmt.Errorf("sort with several keys must be ordered")
		}
		for k, v := range s {
			if err := add(k, v); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("invalid sort specification")
	}
	return keys, nil
}

// sortDocs orders docs in place; ties keep insertion order.
func sortDocs(docs []bson.M, keys []sortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			a, _ := lookup(docs[i], k.field)
			b, _ := lookup(docs[j], k.field)
			c := sortCompare(a, b)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
