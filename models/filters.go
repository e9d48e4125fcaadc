package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type BacklogFilter struct {
	Project    *primitive.ObjectID
	Sprint     *primitive.ObjectID
	Status     BacklogStatus
	TaskStatus TaskProgress
	Assignee   *primitive.ObjectID
	// RunningBy selects items whose timer was started by this user.
	RunningBy *primitive.ObjectID
}

type SprintFilter struct {
	Project *primitive.ObjectID
	Status  SprintStatus
}

type ProjectFilter struct {
	Member     *primitive.ObjectID
	Department string
	Status     ProjectStatus
}

type TaskFilter struct {
	Assignee *primitive.ObjectID
	Status   TaskStatus
	Project  string
}

type UserFilter struct {
	Role       Role
	Department string
}

type FolderFilter struct {
	Parent  *primitive.ObjectID
	Root    bool
	Project *primitive.ObjectID
}
