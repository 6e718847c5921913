package archive

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/definekit/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultDatabase   = "definekit"
	DefaultCollection = "defines"
)

// MongoOptions configures [NewMongo].
type MongoOptions struct {
	URI        string
	Database   string // defaults to DefaultDatabase
	Collection string // defaults to DefaultCollection
}

// Mongo is a Store backed by one MongoDB collection. The FileOID is the
// document _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to MongoDB and pings the primary.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "archived_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create archive index")
	}
	return &Mongo{client: client, coll: coll}, nil
}

// Put upserts the entry.
func (s *Mongo) Put(ctx context.Context, e *Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": e.FileOID}, e, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "archive %s", e.FileOID)
	}
	return nil
}

// Get loads one entry.
func (s *Mongo) Get(ctx context.Context, fileOID string) (*Entry, error) {
	var e Entry
	err := s.coll.FindOne(ctx, bson.M{"_id": fileOID}).Decode(&e)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(fileOID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load %s", fileOID)
	}
	return &e, nil
}

// List loads every entry without its document, newest first.
func (s *Mongo) List(ctx context.Context) ([]*Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "archived_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list archive")
	}
	var out []*Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list archive")
	}
	return out, nil
}

// Delete removes one entry.
func (s *Mongo) Delete(ctx context.Context, fileOID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": fileOID}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s", fileOID)
	}
	return nil
}

// Close disconnects the client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
