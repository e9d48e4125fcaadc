// Package repositories holds the production stores: MongoDB for documents
// and files, Cassandra for notifications and Neo4j for the dependency
// graph.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yoosprint/logging"
	"yoosprint/models"
)

const (
	UsersCollection    = "users"
	ProjectsCollection = "projects"
	BacklogsCollection = "backlogs"
	SprintsCollection  = "sprints"
	TasksCollection    = "tasks"
	FoldersCollection  = "file_folders"
)

// ConnectMongo connects and pings the server.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database connection for MongoDB failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB connection ping error: %w", err)
	}
	return client, nil
}

var runningTimerIndex = options.Index().
	SetName("one_running_timer_per_user").
	SetUnique(true).
	SetPartialFilterExpression(bson.M{"isTimerRunning": true})

// EnsureIndexes creates the unique and lookup indexes every collection
// relies on. It is safe to run on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ProjectsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		BacklogsCollection: {
			{Keys: bson.D{{Key: "project", Value: 1}}},
			{Keys: bson.D{{Key: "sprint", Value: 1}}},
			{Keys: bson.D{{Key: "assignee", Value: 1}}},
			{Keys: bson.D{{Key: "timerStartedBy", Value: 1}, {Key: "isTimerRunning", Value: 1}}},
			// One running timer per user, across every API instance.
			{Keys: bson.D{{Key: "timerStartedBy", Value: 1}}, Options: runningTimerIndex},
		},
		SprintsCollection: {
			{Keys: bson.D{{Key: "project", Value: 1}}},
		},
		FoldersCollection: {
			{Keys: bson.D{{Key: "parent", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		logging.Logger.Debugf("Event ID: DB_INDEXES_READY, Description: Indexes ensured on %s", name)
	}
	return nil
}

// docRepo implements the CRUD shared by every document store.
type docRepo[T any] struct {
	coll *mongo.Collection
}

func (r docRepo[T]) insert(ctx context.Context, doc *T) error {
	_, err := r.coll.InsertOne(ctx, doc)
	return mapWriteError(err)
}

func (r docRepo[T]) findByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r docRepo[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load from %s: %w", r.coll.Name(), err)
	}
	return &doc, nil
}

func (r docRepo[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.coll.Name(), err)
	}
	return out, nil
}

func (r docRepo[T]) replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r docRepo[T]) delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r docRepo[T]) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", r.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return err
}
