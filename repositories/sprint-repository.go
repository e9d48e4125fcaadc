package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"yoosprint/models"
)

type SprintRepo struct {
	docRepo[models.Sprint]
}

func NewSprintRepo(db *mongo.Database) *SprintRepo {
	return &SprintRepo{docRepo[models.Sprint]{coll: db.Collection(SprintsCollection)}}
}

func (r *SprintRepo) Insert(ctx context.Context, s *models.Sprint) error {
	return r.insert(ctx, s)
}

func (r *SprintRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sprint, error) {
	return r.findByID(ctx, id)
}

func (r *SprintRepo) Find(ctx context.Context, f models.SprintFilter) ([]models.Sprint, error) {
	return r.find(ctx, sprintQuery(f))
}

func (r *SprintRepo) Replace(ctx context.Context, s *models.Sprint) error {
	return r.replace(ctx, s.ID, s)
}

func (r *SprintRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

func (r *SprintRepo) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return r.deleteMany(ctx, bson.M{"project": projectID})
}

func sprintQuery(f models.SprintFilter) bson.M {
	q := bson.M{}
	if f.Project != nil {
		q["project"] = *f.Project
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

type TaskRepo struct {
	docRepo[models.Task]
}

func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{docRepo[models.Task]{coll: db.Collection(TasksCollection)}}
}

func (r *TaskRepo) Insert(ctx context.Context, t *models.Task) error {
	return r.insert(ctx, t)
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return r.findByID(ctx, id)
}

func (r *TaskRepo) Find(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	return r.find(ctx, taskQuery(f))
}

func (r *TaskRepo) Replace(ctx context.Context, t *models.Task) error {
	return r.replace(ctx, t.ID, t)
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

func taskQuery(f models.TaskFilter) bson.M {
	q := bson.M{}
	if f.Assignee != nil {
		q["assignee"] = *f.Assignee
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Project != "" {
		q["project"] = f.Project
	}
	return q
}
