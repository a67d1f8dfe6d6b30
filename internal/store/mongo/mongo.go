// Package mongo keeps the ledger document in a MongoDB collection, one BSON
// document per ledger.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lapkeu/internal/core"
	"lapkeu/internal/store"
)

const (
	DefaultDatabase   = "lapkeu"
	DefaultDocumentID = "ledger"
	collectionName    = "documents"
)

// Record is the stored shape. Ledger holds the canonical document as BSON.
type Record struct {
	ID        string    `bson:"_id"`
	Ledger    bson.D    `bson:"record"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Collection is the subset of collection behavior the store needs.
type Collection interface {
	Find(ctx context.Context, id string) (*Record, error)
	Replace(ctx context.Context, rec Record) error
}

// MongoCollection adapts *mongo.Collection to Collection.
type MongoCollection struct {
	*mongo.Collection
}

// Find returns nil, nil when no document has the id.
func (c *MongoCollection) Find(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to perform FindOne: %w", err)
	}
	return &rec, nil
}

func (c *MongoCollection) Replace(ctx context.Context, rec Record) error {
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to perform ReplaceOne: %w", err)
	}
	return nil
}

type Store struct {
	coll   Collection
	docID  string
	client *mongo.Client
	now    func() time.Time
}

var _ store.DocumentStore = (*Store)(nil)

// New returns a store over coll holding the document docID.
func New(coll Collection, docID string) *Store {
	if docID == "" {
		docID = DefaultDocumentID
	}
	return &Store{coll: coll, docID: docID, now: time.Now}
}

// Connect dials uri, pings the server and returns a store on the documents
// collection of database.
func Connect(ctx context.Context, uri, database, docID string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: missing env MONGO_URI", store.ErrNotConfigured)
	}
	if database == "" {
		database = DefaultDatabase
	}
	slog.DebugContext(ctx, "Attempting to connect to MongoDB", "database", database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	slog.InfoContext(ctx, "Successfully established connection to MongoDB", "database", database)

	s := New(&MongoCollection{client.Database(database).Collection(collectionName)}, docID)
	s.client = client
	return s, nil
}

func (s *Store) Name() string { return "mongo" }

// Load renders the stored BSON back to relaxed extended JSON, which for the
// ledger's strings and integers is plain JSON.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	rec, err := s.coll.Find(ctx, s.docID)
	if err != nil {
		return nil, wrap("load document", err)
	}
	if rec == nil || rec.Ledger == nil {
		return nil, nil
	}
	b, err := bson.MarshalExtJSON(rec.Ledger, false, false)
	if err != nil {
		return nil, fmt.Errorf("%w: render document: %v", core.ErrStoreUnavailable, err)
	}
	return b, nil
}

// Save requires a JSON object; the repository always writes the canonical
// shape.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	var ledger bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &ledger); err != nil {
		return fmt.Errorf("%w: convert document: %v", core.ErrValidation, err)
	}
	rec := Record{ID: s.docID, Ledger: ledger, UpdatedAt: s.now().UTC()}
	if err := s.coll.Replace(ctx, rec); err != nil {
		return wrap("save document", err)
	}
	return nil
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrStoreUnavailable, op, err)
}
