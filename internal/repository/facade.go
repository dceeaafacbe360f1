package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

// Page is one page of a list query.
type Page[T any] struct {
	Items      []T
	Total      int64
	Pagination query.Pagination
}

// Pages returns the page count for the page's total.
func (p *Page[T]) Pages() int {
	return p.Pagination.Pages(p.Total)
}

// Facade wraps CRUD, count and aggregate operations on one collection and
// decodes results into T.
type Facade[T any] struct {
	coll    Collection
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFacade[T any](coll Collection, m *metrics.Metrics) *Facade[T] {
	return &Facade[T]{coll: coll, metrics: m, now: time.Now}
}

func (f *Facade[T]) Name() string {
	return f.coll.Name()
}

// Create inserts doc, assigning an ID when it has none and stamping
// createdAt and updatedAt. doc is refreshed from the stored document.
func (f *Facade[T]) Create(ctx context.Context, doc *T) error {
	defer f.observe("create", time.Now())

	m, err := ToDocument(doc)
	if err != nil {
		return err
	}
	if id, ok := m["_id"].(primitive.ObjectID); !ok || id.IsZero() {
		m["_id"] = primitive.NewObjectID()
	}
	now := f.now().UTC()
	m["createdAt"] = now
	m["updatedAt"] = now

	if err := f.coll.InsertOne(ctx, m); err != nil {
		return f.fail("create", err)
	}
	return FromDocument(m, doc)
}

// FindMany returns the documents matching filter inside the page window.
func (f *Facade[T]) FindMany(ctx context.Context, filter bson.M, page query.Pagination, sort query.Sort) ([]T, error) {
	defer f.observe("find", time.Now())

	docs, err := f.coll.Find(ctx, orEmpty(filter), FindOptions{
		Skip:  page.Skip,
		Limit: int64(page.Limit),
		Sort:  sort.BSON(),
	})
	if err != nil {
		return nil, f.fail("find", err)
	}
	return decodeAll[T](docs)
}

// FindAll returns every matching document. Callers bound the result through
// the filter.
func (f *Facade[T]) FindAll(ctx context.Context, filter bson.M, sort query.Sort) ([]T, error) {
	defer f.observe("find", time.Now())

	docs, err := f.coll.Find(ctx, orEmpty(filter), FindOptions{Sort: sort.BSON()})
	if err != nil {
		return nil, f.fail("find", err)
	}
	return decodeAll[T](docs)
}

// FindPage runs FindMany and Count for the same filter.
func (f *Facade[T]) FindPage(ctx context.Context, filter bson.M, page query.Pagination, sort query.Sort) (*Page[T], error) {
	items, err := f.FindMany(ctx, filter, page, sort)
	if err != nil {
		return nil, err
	}
	total, err := f.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Items: items, Total: total, Pagination: page}, nil
}

// FindOne returns the first match, or nil when nothing matches.
func (f *Facade[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	defer f.observe("find_one", time.Now())

	m, err := f.coll.FindOne(ctx, orEmpty(filter))
	if errors.Is(err, ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, f.fail("find_one", err)
	}
	var out T
	if err := FromDocument(m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID returns the document with the given id, or nil when the id is
// unknown or cannot be normalized.
func (f *Facade[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	oid, ok := query.ObjectID(id)
	if !ok {
		return nil, nil
	}
	return f.FindOne(ctx, bson.M{"_id": oid})
}

// UpdateByID applies patch to one document and reports whether it matched.
// A patch without operators is treated as a $set.
func (f *Facade[T]) UpdateByID(ctx context.Context, id interface{}, patch bson.M) (bool, error) {
	oid, ok := query.ObjectID(id)
	if !ok {
		return false, nil
	}
	defer f.observe("update", time.Now())

	res, err := f.coll.UpdateOne(ctx, bson.M{"_id": oid}, f.stamp(patch, false), false)
	if err != nil {
		return false, f.fail("update", err)
	}
	return res.Matched > 0, nil
}

// UpdateMany applies patch to every match and returns the match count.
func (f *Facade[T]) UpdateMany(ctx context.Context, filter, patch bson.M) (int64, error) {
	defer f.observe("update_many", time.Now())

	res, err := f.coll.UpdateMany(ctx, orEmpty(filter), f.stamp(patch, false))
	if err != nil {
		return 0, f.fail("update_many", err)
	}
	return res.Matched, nil
}

// Upsert updates the single document matching filter or inserts one built
// from the filter's equality fields and patch. It reports whether a new
// document was created.
func (f *Facade[T]) Upsert(ctx context.Context, filter, patch bson.M) (bool, error) {
	defer f.observe("upsert", time.Now())

	res, err := f.coll.UpdateOne(ctx, filter, f.stamp(patch, true), true)
	if err != nil {
		return false, f.fail("upsert", err)
	}
	return res.UpsertedID != nil, nil
}

// FindOneAndUpdate applies patch to the first document matching filter and
// returns it as stored afterwards. It returns nil when nothing matched and
// upsert is false. The match and the write are one atomic step, so filter
// can carry the precondition of the update.
func (f *Facade[T]) FindOneAndUpdate(ctx context.Context, filter, patch bson.M, upsert bool) (*T, error) {
	defer f.observe("find_one_and_update", time.Now())

	m, err := f.coll.FindOneAndUpdate(ctx, orEmpty(filter), f.stamp(patch, upsert), upsert)
	if errors.Is(err, ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, f.fail("find_one_and_update", err)
	}
	var out T
	if err := FromDocument(m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteByID removes one document and reports whether it existed.
func (f *Facade[T]) DeleteByID(ctx context.Context, id interface{}) (bool, error) {
	oid, ok := query.ObjectID(id)
	if !ok {
		return false, nil
	}
	defer f.observe("delete", time.Now())

	n, err := f.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, f.fail("delete", err)
	}
	return n > 0, nil
}

// DeleteMany removes every match and returns how many were removed.
func (f *Facade[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	defer f.observe("delete_many", time.Now())

	n, err := f.coll.DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, f.fail("delete_many", err)
	}
	return n, nil
}

func (f *Facade[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	defer f.observe("count", time.Now())

	n, err := f.coll.CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, f.fail("count", err)
	}
	return n, nil
}

// Aggregate runs pipeline and returns the raw result rows.
func (f *Facade[T]) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	defer f.observe("aggregate", time.Now())

	rows, err := f.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, f.fail("aggregate", err)
	}
	return rows, nil
}

// AggregateAs runs pipeline on f and decodes each row into R.
func AggregateAs[R any, T any](ctx context.Context, f *Facade[T], pipeline []bson.M) ([]R, error) {
	rows, err := f.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeAll[R](rows)
}

func (f *Facade[T]) stamp(patch bson.M, upsert bool) bson.M {
	now := f.now().UTC()
	update := bson.M{}
	set := bson.M{}
	if hasOperators(patch) {
		for k, v := range patch {
			update[k] = v
		}
		if existing, ok := patch["$set"].(bson.M); ok {
			for k, v := range existing {
				set[k] = v
			}
		}
	} else {
		for k, v := range patch {
			set[k] = v
		}
	}
	set["updatedAt"] = now
	update["$set"] = set
	if upsert {
		soi := bson.M{}
		if existing, ok := patch["$setOnInsert"].(bson.M); ok {
			for k, v := range existing {
				soi[k] = v
			}
		}
		soi["createdAt"] = now
		update["$setOnInsert"] = soi
	}
	return update
}

func (f *Facade[T]) observe(op string, start time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.DatabaseOperations.WithLabelValues(f.coll.Name(), op).Inc()
	f.metrics.DatabaseLatency.WithLabelValues(f.coll.Name(), op).Observe(time.Since(start).Seconds())
}

func (f *Facade[T]) fail(op string, err error) error {
	if f.metrics != nil {
		f.metrics.DatabaseErrors.WithLabelValues(f.coll.Name(), op).Inc()
	}
	if errors.Is(err, ErrDisconnected) {
		return apperrors.Unavailable(err)
	}
	if errors.Is(err, ErrDuplicateKey) {
		return apperrors.Duplicate(f.coll.Name(), err)
	}
	return apperrors.Query("", fmt.Sprintf("failed to %s %s", strings.ReplaceAll(op, "_", " "), f.coll.Name()), err)
}

func hasOperators(patch bson.M) bool {
	for k := range patch {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func orEmpty(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

func decodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := FromDocument(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
