// Package mongo adapts the official MongoDB driver to the repository
// Database and Collection interfaces.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/jwalitptl/backoffice-api/internal/repository"
)

type Config struct {
	URI            string
	Name           string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the deployment and verifies it with a primary ping.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return Wrap(client.Database(cfg.Name)), nil
}

// Wrap adapts an already connected database handle.
func Wrap(db *mongo.Database) *DB {
	return &DB{client: db.Client(), db: db}
}

func (d *DB) Collection(name string) repository.Collection {
	return &collection{coll: d.db.Collection(name)}
}

func (d *DB) Ping(ctx context.Context) error {
	return translate(d.client.Ping(ctx, readpref.Primary()))
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Name() string {
	return c.coll.Name()
}

func (c *collection) InsertOne(ctx context.Context, doc bson.M) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return translate(err)
}

func (c *collection) Find(ctx context.Context, filter bson.M, opts repository.FindOptions) ([]bson.M, error) {
	fo := options.Find()
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}

	cur, err := c.coll.Find(ctx, filter, fo)
	if err != nil {
		return nil, translate(err)
	}
	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	var out bson.M
	if err := c.coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (repository.UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return repository.UpdateResult{}, translate(err)
	}
	return repository.UpdateResult{
		Matched:    res.MatchedCount,
		Modified:   res.ModifiedCount,
		UpsertedID: res.UpsertedID,
	}, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter, update bson.M) (repository.UpdateResult, error) {
	res, err := c.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return repository.UpdateResult{}, translate(err)
	}
	return repository.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.After)
	var out bson.M
	if err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	return n, translate(err)
}

func (c *collection) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNoDocuments
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
	case errors.Is(err, mongo.ErrClientDisconnected), mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", repository.ErrDisconnected, err)
	}
	var sel topology.ServerSelectionError
	if errors.As(err, &sel) {
		return fmt.Errorf("%w: %v", repository.ErrDisconnected, err)
	}
	return err
}
