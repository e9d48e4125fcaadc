package services

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

var (
	ErrNotFound        = models.ErrNotFound
	ErrValidation      = models.ErrValidation
	ErrConflict        = models.ErrConflict
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExpired         = errors.New("expired")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = models.ErrUnavailable
)

// CooldownError is returned while a rate-limited action is still cooling
// down. It matches ErrTooManyRequests.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", int(e.Remaining.Round(time.Second)/time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrTooManyRequests
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) CanManage() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleManager
}
