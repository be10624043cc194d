package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"user-service/internal/model"
	"user-service/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) UserStore {
		return NewMemoryStore()
	})
}

func TestMemoryStoreUsesClock(t *testing.T) {
	tick := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	ctx := context.Background()

	u := &model.User{Email: "a@example.com"}
	require.NoError(t, s.InsertOne(ctx, u))
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC), u.CreatedAt)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	status := "inactive"
	out, err := s.UpdateActive(ctx, u.ID, Changes{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, u.CreatedAt, out.CreatedAt)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 2, 0, time.UTC), out.UpdatedAt)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &model.User{FirstName: "John", Email: "john@example.com"}
	require.NoError(t, s.InsertOne(ctx, u))
	u.FirstName = "Changed"

	users, err := s.Find(ctx, query.FindOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "John", users[0].FirstName)

	users[0].FirstName = "Mutated"
	again, err := s.Find(ctx, query.FindOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "John", again[0].FirstName)
}

func TestMemoryStoreSkipPastEnd(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.InsertOne(context.Background(), &model.User{Email: "a@example.com"}))

	users, err := s.Find(context.Background(), query.FindOptions{Skip: 5, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestMemoryStoreSoftDeleteKeepsEmailFree(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := &model.User{Email: "a@example.com"}
	b := &model.User{Email: "b@example.com"}
	require.NoError(t, s.InsertOne(ctx, a))
	require.NoError(t, s.InsertOne(ctx, b))

	deleted := true
	_, err := s.UpdateActive(ctx, a.ID, Changes{IsDeleted: &deleted})
	require.NoError(t, err)

	// b may take the address a held before it was deleted
	out, err := s.UpdateActive(ctx, b.ID, Changes{Email: &a.Email})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", out.Email)
}

func TestPartial(t *testing.T) {
	storeDown := errors.New("connection refused")

	err := partial(0, storeDown)
	assert.Same(t, storeDown, err)

	var bulk *BulkWriteError
	err = partial(0, ErrDuplicateEmail)
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, 0, bulk.Inserted)

	err = partial(3, storeDown)
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, 3, bulk.Inserted)
	assert.ErrorIs(t, err, storeDown)
	assert.Contains(t, err.Error(), "after 3 rows")
}

func TestChangesApply(t *testing.T) {
	first, status := "Jane", "inactive"
	u := &model.User{FirstName: "John", LastName: "Doe", Status: "active"}

	Changes{FirstName: &first, Status: &status}.Apply(u)
	assert.Equal(t, "Jane", u.FirstName)
	assert.Equal(t, "Doe", u.LastName)
	assert.Equal(t, "inactive", u.Status)

	cols := Changes{FirstName: &first, Status: &status}.columns()
	assert.Equal(t, map[string]any{"first_name": "Jane", "status": "inactive"}, cols)
}
