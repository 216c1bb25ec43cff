package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mockup/pkg/payload"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "mockup"

// designDoc keeps the encoded payload as a string so the stored document
// matches the ceiling-checked bytes exactly.
type designDoc struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"product_id"`
	Payload   string    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore stores designs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, persistence(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, persistence(err, "ping mongo")
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection("designs")}, nil
}

func (s *MongoStore) SaveDesign(ctx context.Context, d *payload.Design) (string, error) {
	data, err := prepare(d)
	if err != nil {
		return "", err
	}
	doc := designDoc{ID: d.ID, ProductID: d.ProductID, Payload: string(data), CreatedAt: d.CreatedAt}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return "", persistence(err, "upsert design %s", d.ID)
	}
	return d.ID, nil
}

func (s *MongoStore) GetDesign(ctx context.Context, id string) (*payload.Design, error) {
	var doc designDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id)
		}
		return nil, persistence(err, "read design %s", id)
	}
	return payload.DecodeDesign([]byte(doc.Payload))
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Designs = (*MongoStore)(nil)
