package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/services"
	"yoosprint/utils"
)

func TestInviteMailsUsablePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.team.Invite(ctx, e.manager, services.InviteRequest{Name: "Mia", Email: "mia@example.com", Role: models.RoleMember})
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	last := e.mailer.Last()
	assert.Equal(t, "mia@example.com", last.To)
	start := strings.Index(last.Body, "<b>") + len("<b>")
	end := strings.Index(last.Body, "</b>")
	password := last.Body[start:end]
	assert.NoError(t, utils.ValidatePassword(password, nil))
	assert.True(t, utils.CheckPassword(u.Password, password))

	_, err = e.team.Invite(ctx, e.manager, services.InviteRequest{Name: "Boss", Email: "boss@example.com", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, services.ErrForbidden))

	member := services.Actor{ID: u.ID, Role: models.RoleMember}
	_, err = e.team.Invite(ctx, member, services.InviteRequest{Name: "X", Email: "x@example.com"})
	assert.True(t, errors.Is(err, services.ErrForbidden))
}

func TestInviteSurvivesMailFailure(t *testing.T) {
	e := newEnv(t)
	e.mailer.err = errors.New("smtp down")
	u, err := e.team.Invite(context.Background(), e.manager, services.InviteRequest{Name: "Mia", Email: "mia@example.com"})
	require.NoError(t, err)
	assert.False(t, u.ID.IsZero())
}

func TestUpdateProfilePermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.newUser(t, "Ana", "ana@example.com")
	self := services.Actor{ID: u.ID, Role: models.RoleMember}
	admin := services.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	got, err := e.team.Update(ctx, self, u.ID, services.UserPatch{Department: ptr("QA")})
	require.NoError(t, err)
	assert.Equal(t, "QA", got.Department)

	_, err = e.team.Update(ctx, self, u.ID, services.UserPatch{Role: ptr(models.RoleAdmin)})
	assert.True(t, errors.Is(err, services.ErrForbidden))

	other := services.Actor{ID: primitive.NewObjectID(), Role: models.RoleManager}
	_, err = e.team.Update(ctx, other, u.ID, services.UserPatch{Name: ptr("Hacked")})
	assert.True(t, errors.Is(err, services.ErrForbidden))

	got, err = e.team.Update(ctx, admin, u.ID, services.UserPatch{Role: ptr(models.RoleManager)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, got.Role)

	qa, err := e.team.List(ctx, models.UserFilter{Department: "QA"})
	require.NoError(t, err)
	assert.Len(t, qa, 1)
}

func TestDeleteUserRefusedWhileBusy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.newUser(t, "Ana", "ana@example.com")
	admin := services.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	assert.True(t, errors.Is(e.team.Delete(ctx, e.manager, u.ID), services.ErrForbidden))

	b, err := e.backlog.Create(ctx, &models.Backlog{Title: "Busy", Project: e.projectID, Assignee: &u.ID, TaskStatus: models.TaskInProgress})
	require.NoError(t, err)
	assert.True(t, errors.Is(e.team.Delete(ctx, admin, u.ID), services.ErrConflict))

	_, err = e.backlog.Update(ctx, b.ID, services.BacklogPatch{TaskStatus: ptr(models.TaskPending)})
	require.NoError(t, err)
	require.NoError(t, e.team.Delete(ctx, admin, u.ID))
	_, err = e.team.Get(ctx, u.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
