package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yoosprint/models"
	"yoosprint/services"
)

func TestFolderTree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	root, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "Specs", Project: &e.projectID})
	require.NoError(t, err)
	child, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "API", Parent: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, child.Project, "project is inherited from the parent")
	assert.Equal(t, e.projectID, *child.Project)
	grandchild, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "v1", Parent: &child.ID})
	require.NoError(t, err)

	top, err := e.files.ListFolders(ctx, models.FolderFilter{Root: true})
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, err = e.files.UpdateFolder(ctx, root.ID, services.FolderPatch{Parent: models.SetID(grandchild.ID)})
	assert.True(t, errors.Is(err, services.ErrConflict))
	_, err = e.files.UpdateFolder(ctx, root.ID, services.FolderPatch{Parent: models.SetID(root.ID)})
	assert.True(t, errors.Is(err, services.ErrConflict))

	moved, err := e.files.UpdateFolder(ctx, grandchild.ID, services.FolderPatch{Parent: models.ClearID(), Name: ptr("Archive")})
	require.NoError(t, err)
	assert.Nil(t, moved.Parent)
	assert.Equal(t, "Archive", moved.Name)

	_, err = e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "bad/name"})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestUploadDownloadDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	folder, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "Docs"})
	require.NoError(t, err)

	doc, err := e.files.UploadFile(ctx, e.manager, folder.ID, "../../etc/plan.txt", "text/plain", strings.NewReader("ship it"))
	require.NoError(t, err)
	assert.Equal(t, "plan.txt", doc.Name)
	assert.Equal(t, int64(7), doc.Size)

	meta, rc, err := e.files.OpenFile(ctx, folder.ID, doc.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "ship it", string(data))
	assert.Equal(t, "text/plain", meta.ContentType)

	require.NoError(t, e.files.DeleteFile(ctx, folder.ID, doc.ID))
	assert.Equal(t, 0, e.blobs.Len())
	_, _, err = e.files.OpenFile(ctx, folder.ID, doc.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestDeleteFolderIsRecursive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	root, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "Root"})
	require.NoError(t, err)
	child, err := e.files.CreateFolder(ctx, e.manager, &models.FileFolder{Name: "Child", Parent: &root.ID})
	require.NoError(t, err)
	_, err = e.files.UploadFile(ctx, e.manager, root.ID, "a.txt", "", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = e.files.UploadFile(ctx, e.manager, child.ID, "b.txt", "", strings.NewReader("b"))
	require.NoError(t, err)
	require.Equal(t, 2, e.blobs.Len())

	require.NoError(t, e.files.DeleteFolder(ctx, root.ID))
	assert.Equal(t, 0, e.blobs.Len())
	_, err = e.files.GetFolder(ctx, child.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
