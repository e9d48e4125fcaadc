package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileDocument struct {
	ID          string             `bson:"id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"contentType" json:"contentType"`
	BlobID      string             `bson:"blobId" json:"-"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

type FileFolder struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Parent     *primitive.ObjectID `bson:"parent" json:"parent"`
	Project    *primitive.ObjectID `bson:"project" json:"project"`
	Owner      primitive.ObjectID  `bson:"owner" json:"owner"`
	Files      []FileDocument      `bson:"files" json:"files"`
	Department string              `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (f *FileFolder) ApplyDefaults() {
	if f.Files == nil {
		f.Files = []FileDocument{}
	}
}

func (f *FileFolder) BeforeSave(now time.Time) {
	f.Name = strings.TrimSpace(f.Name)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
}

func (f *FileFolder) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fieldError("name", "is required")
	}
	if strings.ContainsAny(f.Name, "/\\") {
		return fieldError("name", "must not contain path separators")
	}
	if f.Parent != nil && *f.Parent == f.ID && !f.ID.IsZero() {
		return fieldError("parent", "a folder cannot contain itself")
	}
	return nil
}

func (f *FileFolder) FileIndex(fileID string) int {
	for i, file := range f.Files {
		if file.ID == fileID {
			return i
		}
	}
	return -1
}
