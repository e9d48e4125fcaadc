package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
)

// FileService organizes uploaded documents into a folder tree. Folder
// metadata lives in FolderStore and file contents in BlobStore.
type FileService struct {
	folders FolderStore
	blobs   BlobStore
	now     func() time.Time
}

func NewFileService(folders FolderStore, blobs BlobStore) *FileService {
	return &FileService{folders: folders, blobs: blobs, now: time.Now}
}

func (s *FileService) WithClock(now func() time.Time) *FileService {
	s.now = now
	return s
}

type FolderPatch struct {
	Name   *string           `json:"name"`
	Parent models.OptionalID `json:"parent"`
}

func (s *FileService) save(ctx context.Context, f *models.FileFolder) error {
	f.ApplyDefaults()
	f.BeforeSave(s.now())
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
		return s.folders.Insert(ctx, f)
	}
	return s.folders.Replace(ctx, f)
}

func (s *FileService) CreateFolder(ctx context.Context, actor Actor, f *models.FileFolder) (*models.FileFolder, error) {
	f.ID = primitive.NilObjectID
	f.CreatedAt, f.UpdatedAt = time.Time{}, time.Time{}
	f.Owner = actor.ID
	f.Files = nil
	if f.Parent != nil {
		parent, err := s.GetFolder(ctx, *f.Parent)
		if err != nil {
			return nil, err
		}
		if f.Project == nil {
			f.Project = parent.Project
		}
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: FOLDER_CREATED, Description: Folder %q (%s) created", f.Name, f.ID.Hex())
	return f, nil
}

func (s *FileService) GetFolder(ctx context.Context, id primitive.ObjectID) (*models.FileFolder, error) {
	f, err := s.folders.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "folder")
	}
	return f, nil
}

func (s *FileService) ListFolders(ctx context.Context, f models.FolderFilter) ([]models.FileFolder, error) {
	folders, err := s.folders.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// UpdateFolder renames and/or moves a folder. A folder cannot be moved
// below itself.
func (s *FileService) UpdateFolder(ctx context.Context, id primitive.ObjectID, patch FolderPatch) (*models.FileFolder, error) {
	f, err := s.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Parent.Set {
		if patch.Parent.Value != nil {
			below, err := s.isWithin(ctx, *patch.Parent.Value, f.ID)
			if err != nil {
				return nil, err
			}
			if below {
				return nil, conflict("cannot move a folder into itself or one of its subfolders")
			}
		}
		f.Parent = patch.Parent.Value
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// isWithin reports whether candidate is id or lies below it, walking
// candidate's parent chain.
func (s *FileService) isWithin(ctx context.Context, candidate, id primitive.ObjectID) (bool, error) {
	seen := make(map[primitive.ObjectID]bool)
	current := &candidate
	for current != nil {
		if *current == id {
			return true, nil
		}
		if seen[*current] {
			return false, nil
		}
		seen[*current] = true
		folder, err := s.GetFolder(ctx, *current)
		if err != nil {
			return false, err
		}
		current = folder.Parent
	}
	return false, nil
}

// DeleteFolder removes the folder, its subfolders and every stored blob
// beneath them.
func (s *FileService) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	root, err := s.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	queue := []models.FileFolder{*root}
	var doomed []models.FileFolder
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		doomed = append(doomed, current)

		children, err := s.folders.Find(ctx, models.FolderFilter{Parent: &current.ID})
		if err != nil {
			return fmt.Errorf("failed to list subfolders: %w", err)
		}
		queue = append(queue, children...)
	}

	for i := len(doomed) - 1; i >= 0; i-- {
		folder := doomed[i]
		for _, file := range folder.Files {
			s.deleteBlob(ctx, file.BlobID)
		}
		if err := s.folders.Delete(ctx, folder.ID); err != nil {
			return wrapLookup(err, "folder")
		}
	}
	logging.Logger.Infof("Event ID: FOLDER_DELETED, Description: Folder %s deleted with %d subfolders", id.Hex(), len(doomed)-1)
	return nil
}

func (s *FileService) UploadFile(ctx context.Context, actor Actor, folderID primitive.ObjectID, name, contentType string, r io.Reader) (*models.FileDocument, error) {
	folder, err := s.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, invalid("file name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blobID, size, err := s.blobs.Upload(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	doc := models.FileDocument{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        size,
		ContentType: contentType,
		BlobID:      blobID,
		UploadedBy:  actor.ID,
		UploadedAt:  s.now(),
	}
	folder.Files = append(folder.Files, doc)
	if err := s.save(ctx, folder); err != nil {
		s.deleteBlob(ctx, blobID)
		return nil, err
	}
	logging.Logger.Infof("Event ID: FILE_UPLOADED, Description: File %q (%d bytes) uploaded to folder %s", name, size, folderID.Hex())
	return &doc, nil
}

// OpenFile returns the file metadata and a reader over its contents. The
// caller closes the reader.
func (s *FileService) OpenFile(ctx context.Context, folderID primitive.ObjectID, fileID string) (*models.FileDocument, io.ReadCloser, error) {
	folder, err := s.GetFolder(ctx, folderID)
	if err != nil {
		return nil, nil, err
	}
	i := folder.FileIndex(fileID)
	if i < 0 {
		return nil, nil, notFound("file")
	}
	doc := folder.Files[i]
	rc, err := s.blobs.Open(ctx, doc.BlobID)
	if err != nil {
		return nil, nil, wrapLookup(err, "file contents")
	}
	return &doc, rc, nil
}

func (s *FileService) DeleteFile(ctx context.Context, folderID primitive.ObjectID, fileID string) error {
	folder, err := s.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	i := folder.FileIndex(fileID)
	if i < 0 {
		return notFound("file")
	}
	blobID := folder.Files[i].BlobID
	folder.Files = append(folder.Files[:i], folder.Files[i+1:]...)
	if err := s.save(ctx, folder); err != nil {
		return err
	}
	s.deleteBlob(ctx, blobID)
	return nil
}

func (s *FileService) deleteBlob(ctx context.Context, blobID string) {
	if blobID == "" {
		return
	}
	if err := s.blobs.Delete(ctx, blobID); err != nil {
		logging.Logger.Warnf("Event ID: FILE_BLOB_DELETE_FAILED, Description: Failed to delete blob %s: %v", blobID, err)
	}
}
