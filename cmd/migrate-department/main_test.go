package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackfill struct {
	missing map[string]int64
	set     map[string]string
	failOn  string
}

func (f *fakeBackfill) CountMissing(_ context.Context, collection string) (int64, error) {
	if collection == f.failOn {
		return 0, errors.New("count failed")
	}
	return f.missing[collection], nil
}

func (f *fakeBackfill) SetMissing(_ context.Context, collection, department string) (int64, error) {
	if f.set == nil {
		f.set = make(map[string]string)
	}
	f.set[collection] = department
	n := f.missing[collection]
	f.missing[collection] = 0
	return n, nil
}

func TestRunAsksPerCollection(t *testing.T) {
	db := &fakeBackfill{missing: map[string]int64{"users": 3, "projects": 0, "backlogs": 5}}
	opts := options{Department: "R&D", Collections: []string{"users", "projects", "backlogs"}}
	var out bytes.Buffer

	err := run(context.Background(), opts, db, strings.NewReader("y\nn\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"users": "R&D"}, db.set)
	assert.Contains(t, out.String(), "users: 3 documents have no department")
	assert.Contains(t, out.String(), "projects: nothing to migrate")
	assert.Contains(t, out.String(), "backlogs: skipped")
	assert.Contains(t, out.String(), "done, 3 documents updated")
}

func TestRunWithYesSkipsPrompts(t *testing.T) {
	db := &fakeBackfill{missing: map[string]int64{"users": 1, "tasks": 2}}
	opts := options{Department: "Ops", Collections: []string{"users", "tasks"}, Yes: true}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), opts, db, strings.NewReader(""), &out))
	assert.Len(t, db.set, 2)
	assert.NotContains(t, out.String(), "[y/N]")
}

func TestRunTreatsEOFAsNo(t *testing.T) {
	db := &fakeBackfill{missing: map[string]int64{"users": 1}}
	opts := options{Department: "Ops", Collections: []string{"users"}}

	require.NoError(t, run(context.Background(), opts, db, strings.NewReader(""), &bytes.Buffer{}))
	assert.Empty(t, db.set)
}

func TestRunStopsOnStoreError(t *testing.T) {
	db := &fakeBackfill{missing: map[string]int64{"users": 1}, failOn: "users"}
	opts := options{Department: "Ops", Collections: []string{"users"}, Yes: true}
	assert.Error(t, run(context.Background(), opts, db, strings.NewReader(""), &bytes.Buffer{}))
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--department", "QA", "--collections", "users,tasks", "--yes"}))

	dept, _ := cmd.Flags().GetString("department")
	cols, _ := cmd.Flags().GetStringSlice("collections")
	yes, _ := cmd.Flags().GetBool("yes")
	assert.Equal(t, "QA", dept)
	assert.Equal(t, []string{"users", "tasks"}, cols)
	assert.True(t, yes)
}
