package reportstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/depweight/pkg/errors"
)

// DefaultCollection holds runs in MongoDB.
const DefaultCollection = "runs"

// MongoStore keeps runs in a MongoDB collection. Reports are stored as a
// JSON payload so the document schema does not follow every report field.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// runDocument is the stored form of a Run.
type runDocument struct {
	ID          string    `bson:"_id"`
	Project     string    `bson:"project"`
	CreatedAt   time.Time `bson:"created_at"`
	ReportCount int       `bson:"report_count"`
	Payload     string    `bson:"payload,omitempty"`
}

// NewMongoStore connects to uri and uses database.runs. It verifies the
// connection and creates the listing index.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeIO, err, "ping mongodb")
	}

	coll := client.Database(database).Collection(DefaultCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, r *Run) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	doc := runDocument{
		ID:          r.ID,
		Project:     r.Project,
		CreatedAt:   r.CreatedAt,
		ReportCount: len(r.Reports),
		Payload:     string(payload),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "insert run %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var doc runDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "find run %s", id)
	}
	var r Run
	if err := json.Unmarshal([]byte(doc.Payload), &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "parse run %s", id)
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"payload": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list runs")
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc runDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "decode run")
		}
		out = append(out, Summary{ID: doc.ID, Project: doc.Project, CreatedAt: doc.CreatedAt, Reports: doc.ReportCount})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list runs")
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
