package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DepartmentCollections are the collections whose documents carry a
// department field.
var DepartmentCollections = []string{
	UsersCollection,
	ProjectsCollection,
	BacklogsCollection,
	SprintsCollection,
	TasksCollection,
	FoldersCollection,
}

// missingDepartment matches documents where department is absent, null or
// empty.
var missingDepartment = bson.M{"$or": bson.A{
	bson.M{"department": bson.M{"$exists": false}},
	bson.M{"department": nil},
	bson.M{"department": ""},
}}

type DepartmentBackfill struct {
	db *mongo.Database
}

func NewDepartmentBackfill(db *mongo.Database) *DepartmentBackfill {
	return &DepartmentBackfill{db: db}
}

func (b *DepartmentBackfill) CountMissing(ctx context.Context, collection string) (int64, error) {
	n, err := b.db.Collection(collection).CountDocuments(ctx, missingDepartment)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func (b *DepartmentBackfill) SetMissing(ctx context.Context, collection, department string) (int64, error) {
	res, err := b.db.Collection(collection).UpdateMany(ctx, missingDepartment, bson.M{"$set": bson.M{"department": department}})
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", collection, err)
	}
	return res.ModifiedCount, nil
}
