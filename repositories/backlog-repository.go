package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"yoosprint/models"
)

type BacklogRepo struct {
	docRepo[models.Backlog]
}

func NewBacklogRepo(db *mongo.Database) *BacklogRepo {
	return &BacklogRepo{docRepo[models.Backlog]{coll: db.Collection(BacklogsCollection)}}
}

func (r *BacklogRepo) Insert(ctx context.Context, b *models.Backlog) error {
	return r.insert(ctx, b)
}

func (r *BacklogRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Backlog, error) {
	return r.findByID(ctx, id)
}

func (r *BacklogRepo) Find(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, error) {
	return r.find(ctx, backlogQuery(f))
}

func (r *BacklogRepo) Replace(ctx context.Context, b *models.Backlog) error {
	return r.replace(ctx, b.ID, b)
}

func (r *BacklogRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

func (r *BacklogRepo) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return r.deleteMany(ctx, bson.M{"project": projectID})
}

// CompletedPointsByAssignee sums storyPoints of the user's completed items
// on the server.
func (r *BacklogRepo) CompletedPointsByAssignee(ctx context.Context, userID primitive.ObjectID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "assignee", Value: userID},
			{Key: "taskStatus", Value: models.TaskCompleted},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$storyPoints"}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate story points: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode story points: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func backlogQuery(f models.BacklogFilter) bson.M {
	q := bson.M{}
	if f.Project != nil {
		q["project"] = *f.Project
	}
	if f.Sprint != nil {
		q["sprint"] = *f.Sprint
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.TaskStatus != "" {
		q["taskStatus"] = f.TaskStatus
	}
	if f.Assignee != nil {
		q["assignee"] = *f.Assignee
	}
	if f.RunningBy != nil {
		q["isTimerRunning"] = true
		q["timerStartedBy"] = *f.RunningBy
	}
	return q
}
