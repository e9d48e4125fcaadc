package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"yoosprint/models"
)

type ProjectRepo struct {
	docRepo[models.Project]
}

func NewProjectRepo(db *mongo.Database) *ProjectRepo {
	return &ProjectRepo{docRepo[models.Project]{coll: db.Collection(ProjectsCollection)}}
}

func (r *ProjectRepo) Insert(ctx context.Context, p *models.Project) error {
	return r.insert(ctx, p)
}

func (r *ProjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	return r.findByID(ctx, id)
}

func (r *ProjectRepo) Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	return r.find(ctx, projectQuery(f))
}

func (r *ProjectRepo) Replace(ctx context.Context, p *models.Project) error {
	return r.replace(ctx, p.ID, p)
}

func (r *ProjectRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

func projectQuery(f models.ProjectFilter) bson.M {
	q := bson.M{}
	if f.Member != nil {
		q["$or"] = bson.A{
			bson.M{"owner": *f.Member},
			bson.M{"members": *f.Member},
		}
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

type FolderRepo struct {
	docRepo[models.FileFolder]
}

func NewFolderRepo(db *mongo.Database) *FolderRepo {
	return &FolderRepo{docRepo[models.FileFolder]{coll: db.Collection(FoldersCollection)}}
}

func (r *FolderRepo) Insert(ctx context.Context, f *models.FileFolder) error {
	return r.insert(ctx, f)
}

func (r *FolderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.FileFolder, error) {
	return r.findByID(ctx, id)
}

func (r *FolderRepo) Find(ctx context.Context, f models.FolderFilter) ([]models.FileFolder, error) {
	return r.find(ctx, folderQuery(f))
}

func (r *FolderRepo) Replace(ctx context.Context, f *models.FileFolder) error {
	return r.replace(ctx, f.ID, f)
}

func (r *FolderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

// folderQuery matches a null parent for root listings, which also matches
// documents with no parent field at all.
func folderQuery(f models.FolderFilter) bson.M {
	q := bson.M{}
	switch {
	case f.Parent != nil:
		q["parent"] = *f.Parent
	case f.Root:
		q["parent"] = nil
	}
	if f.Project != nil {
		q["project"] = *f.Project
	}
	return q
}
