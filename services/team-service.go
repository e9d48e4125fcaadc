package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
	"yoosprint/utils"
)

// TeamService manages user accounts on behalf of other users.
type TeamService struct {
	users    UserStore
	backlogs BacklogStore
	mailer   Mailer
	now      func() time.Time
}

func NewTeamService(users UserStore, backlogs BacklogStore, mailer Mailer) *TeamService {
	return &TeamService{users: users, backlogs: backlogs, mailer: mailer, now: time.Now}
}

func (s *TeamService) WithClock(now func() time.Time) *TeamService {
	s.now = now
	return s
}

type UserPatch struct {
	Name       *string      `json:"name"`
	Department *string      `json:"department"`
	Avatar     *string      `json:"avatar"`
	Role       *models.Role `json:"role"`
	IsActive   *bool        `json:"isActive"`
}

type InviteRequest struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	Department string      `json:"department"`
}

func saveUser(ctx context.Context, store UserStore, u *models.User, now time.Time) error {
	u.ApplyDefaults()
	u.BeforeSave(now)
	if err := u.Validate(); err != nil {
		return err
	}
	var err error
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
		if err = store.Insert(ctx, u); err != nil {
			u.ID = primitive.NilObjectID
		}
	} else {
		err = store.Replace(ctx, u)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) {
		return conflict("email %s is already registered", u.Email)
	}
	return err
}

func (s *TeamService) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	users, err := s.users.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *TeamService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	return u, nil
}

// Update changes a profile. Users edit themselves; admins edit anyone and
// are the only ones allowed to change roles or deactivate accounts.
func (s *TeamService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch UserPatch) (*models.User, error) {
	if actor.ID != id && !actor.IsAdmin() {
		return nil, fmt.Errorf("cannot edit another user's profile: %w", ErrForbidden)
	}
	if (patch.Role != nil || patch.IsActive != nil) && !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can change roles: %w", ErrForbidden)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Department != nil {
		u.Department = *patch.Department
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	if err := saveUser(ctx, s.users, u, s.now()); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user. Refused while the user still has in-progress
// backlog items.
func (s *TeamService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("only admins can delete users: %w", ErrForbidden)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	active, err := s.backlogs.Find(ctx, models.BacklogFilter{Assignee: &id, TaskStatus: models.TaskInProgress})
	if err != nil {
		return fmt.Errorf("failed to check user items: %w", err)
	}
	if len(active) > 0 {
		return conflict("user has %d in-progress items", len(active))
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return wrapLookup(err, "user")
	}
	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted by %s", id.Hex(), actor.ID.Hex())
	return nil
}

// Invite creates an active account with a generated password and mails the
// credentials. A mail failure does not undo the account.
func (s *TeamService) Invite(ctx context.Context, actor Actor, req InviteRequest) (*models.User, error) {
	if !actor.CanManage() {
		return nil, fmt.Errorf("only managers can invite users: %w", ErrForbidden)
	}
	if req.Role == models.RoleAdmin && !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can invite admins: %w", ErrForbidden)
	}
	password, err := utils.GenerateRandomPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   hash,
		Role:       req.Role,
		Department: req.Department,
		IsActive:   true,
	}
	if err := saveUser(ctx, s.users, u, s.now()); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("<p>Hello %s,</p><p>You have been invited to YooSprint.</p><p>Email: %s<br>Temporary password: <b>%s</b></p><p>Please change it after your first login.</p>", u.Name, u.Email, password)
	if err := s.mailer.Send(u.Email, "Your YooSprint account", body); err != nil {
		logging.Logger.Errorf("Event ID: INVITE_EMAIL_FAILED, Description: Failed to send invite to %s: %v", u.Email, err)
	}
	logging.Logger.Infof("Event ID: USER_INVITED, Description: User %s invited by %s", u.Email, actor.ID.Hex())
	return u, nil
}
