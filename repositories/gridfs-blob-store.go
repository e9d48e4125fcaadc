package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yoosprint/models"
)

const FilesBucket = "files"

// GridFSBlobStore keeps uploaded file contents in a GridFS bucket. Blob ids
// are the hex GridFS file ids.
type GridFSBlobStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSBlobStore(db *mongo.Database) (*GridFSBlobStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(FilesBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	return &GridFSBlobStore{bucket: bucket}, nil
}

func (s *GridFSBlobStore) Upload(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	stream, err := s.bucket.OpenUploadStream(name)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}
	size, err := io.Copy(stream, r)
	if err != nil {
		_ = stream.Abort()
		return "", 0, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := stream.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finish upload of %s: %w", name, err)
	}
	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", 0, fmt.Errorf("unexpected GridFS file id %v", stream.FileID)
	}
	return id.Hex(), size, nil
}

func (s *GridFSBlobStore) Open(ctx context.Context, blobID string) (io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil, models.ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStream(id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", blobID, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}
	return stream, nil
}

func (s *GridFSBlobStore) Delete(ctx context.Context, blobID string) error {
	id, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return models.ErrNotFound
	}
	err = s.bucket.DeleteContext(ctx, id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return models.ErrNotFound
	}
	return err
}
