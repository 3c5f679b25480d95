package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

const (
	// DefaultDatabase is the MongoDB database records are written to.
	DefaultDatabase = "gauzecut"

	// collectionName holds one document per (name, variant).
	collectionName = "experiments"
)

// document is the stored form of a Record, keyed by Record.ID.
type document struct {
	ID     string `bson:"_id"`
	Record `bson:",inline"`
}

// MongoStore keeps records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection. An empty
// database selects DefaultDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if err := gerrors.ValidateURL(uri); err != nil {
		return nil, err
	}
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// Save upserts r.
func (s *MongoStore) Save(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	doc := document{ID: r.ID(), Record: *r}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save record %s: %w", doc.ID, err)
	}
	return nil
}

// Load fetches a record.
func (s *MongoStore) Load(ctx context.Context, name string, variant Variant) (*Record, error) {
	if err := validateKey(name, variant); err != nil {
		return nil, err
	}
	var doc document
	id := name + "/" + string(variant)
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(name, variant)
		}
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return &doc.Record, nil
}

// List returns the stored variants of name, in pipeline order.
func (s *MongoStore) List(ctx context.Context, name string) ([]Variant, error) {
	if err := gerrors.ValidateExperimentName(name); err != nil {
		return nil, err
	}
	var out []Variant
	for _, v := range Variants {
		n, err := s.coll.CountDocuments(ctx, bson.M{"_id": name + "/" + string(v)})
		if err != nil {
			return nil, fmt.Errorf("list records of %s: %w", name, err)
		}
		if n > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
