package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

type Theme struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RequiredXP int    `json:"requiredXp"`
}

// Themes is ordered by unlock threshold.
var Themes = []Theme{
	{ID: models.DefaultTheme, Name: "Classic", RequiredXP: 0},
	{ID: "ocean", Name: "Ocean", RequiredXP: 10},
	{ID: "forest", Name: "Forest", RequiredXP: 25},
	{ID: "sunset", Name: "Sunset", RequiredXP: 50},
	{ID: "midnight", Name: "Midnight", RequiredXP: 100},
	{ID: "aurora", Name: "Aurora", RequiredXP: 200},
}

type ThemeStatus struct {
	Theme
	Unlocked bool `json:"unlocked"`
	Current  bool `json:"current"`
}

type ThemeOverview struct {
	XP      int           `json:"xp"`
	Current string        `json:"current"`
	Themes  []ThemeStatus `json:"themes"`
}

// ThemeService unlocks UI themes from completed story points.
type ThemeService struct {
	users    UserStore
	backlogs BacklogStore
	now      func() time.Time
}

func NewThemeService(users UserStore, backlogs BacklogStore) *ThemeService {
	return &ThemeService{users: users, backlogs: backlogs, now: time.Now}
}

func (s *ThemeService) XP(ctx context.Context, userID primitive.ObjectID) (int, error) {
	xp, err := s.backlogs.CompletedPointsByAssignee(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute xp: %w", err)
	}
	return xp, nil
}

func (s *ThemeService) List(ctx context.Context, userID primitive.ObjectID) (*ThemeOverview, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	xp, err := s.XP(ctx, userID)
	if err != nil {
		return nil, err
	}
	overview := &ThemeOverview{XP: xp, Current: u.Theme, Themes: make([]ThemeStatus, 0, len(Themes))}
	for _, t := range Themes {
		overview.Themes = append(overview.Themes, ThemeStatus{
			Theme:    t,
			Unlocked: xp >= t.RequiredXP,
			Current:  t.ID == u.Theme,
		})
	}
	return overview, nil
}

// Select switches the user's theme. Locked themes are refused.
func (s *ThemeService) Select(ctx context.Context, userID primitive.ObjectID, themeID string) (*ThemeOverview, error) {
	theme, ok := findTheme(themeID)
	if !ok {
		return nil, notFound("theme")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	xp, err := s.XP(ctx, userID)
	if err != nil {
		return nil, err
	}
	if xp < theme.RequiredXP {
		return nil, fmt.Errorf("theme %q unlocks at %d xp, you have %d: %w", theme.Name, theme.RequiredXP, xp, ErrForbidden)
	}
	u.Theme = theme.ID
	if err := saveUser(ctx, s.users, u, s.now()); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

func findTheme(id string) (Theme, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}
