package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"user-service/internal/model"
	"user-service/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newUser(i int, first string) *model.User {
	return &model.User{
		FirstName: first,
		LastName:  fmt.Sprintf("Last%02d", i),
		Email:     fmt.Sprintf("user%02d@example.com", i),
		Phone:     "555-0100",
		BirthDate: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Status:    "active",
		CreatedAt: epoch.Add(time.Duration(i) * 24 * time.Hour),
	}
}

func countAll(t *testing.T, s UserStore) int64 {
	t.Helper()
	n, err := s.Count(context.Background(), query.Filter{})
	require.NoError(t, err)
	return n
}

func sortField(t *testing.T, name string) *query.Field {
	t.Helper()
	f, ok := query.Lookup(name)
	require.True(t, ok)
	return f
}

// runStoreContract exercises the behaviour every UserStore must share
func runStoreContract(t *testing.T, newStore func(t *testing.T) UserStore) {
	ctx := context.Background()

	t.Run("insert assigns id and guards email", func(t *testing.T) {
		s := newStore(t)
		first := newUser(1, "John")
		require.NoError(t, s.InsertOne(ctx, first))
		assert.NotEmpty(t, first.ID)

		dup := newUser(2, "Johnny")
		dup.Email = first.Email
		err := s.InsertOne(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		n, err := s.Count(ctx, query.ByEmail(first.Email))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("find filters sorts and windows", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 6; i++ {
			name := "John"
			if i%2 == 0 {
				name = "Jane"
			}
			require.NoError(t, s.InsertOne(ctx, newUser(i, name)))
		}

		filter, err := query.Build(query.Request{FirstName: "John"})
		require.NoError(t, err)

		total, err := s.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		users, err := s.Find(ctx, query.FindOptions{
			Filter: filter, Skip: 0, Limit: 2,
			SortField: sortField(t, "createdAt"), Descending: true,
		})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "user05@example.com", users[0].Email)
		assert.Equal(t, "user03@example.com", users[1].Email)

		users, err = s.Find(ctx, query.FindOptions{
			Filter: filter, Skip: 2, Limit: 2,
			SortField: sortField(t, "createdAt"), Descending: true,
		})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "user01@example.com", users[0].Email)

		users, err = s.Find(ctx, query.FindOptions{
			Filter: query.Filter{}, Skip: 0, Limit: 10,
			SortField: sortField(t, "lastName"),
		})
		require.NoError(t, err)
		require.Len(t, users, 6)
		assert.Equal(t, "Last01", users[0].LastName)
		assert.Equal(t, "Last06", users[5].LastName)
	})

	t.Run("soft deleted users disappear from reads", func(t *testing.T) {
		s := newStore(t)
		u := newUser(1, "John")
		require.NoError(t, s.InsertOne(ctx, u))

		deleted := true
		out, err := s.UpdateActive(ctx, u.ID, Changes{IsDeleted: &deleted})
		require.NoError(t, err)
		assert.True(t, out.IsDeleted)

		assert.Equal(t, int64(0), countAll(t, s))
		users, err := s.Find(ctx, query.FindOptions{Filter: query.ByEmail(u.Email), Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, users)

		_, err = s.UpdateActive(ctx, u.ID, Changes{IsDeleted: &deleted})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("email can be reused after soft delete", func(t *testing.T) {
		s := newStore(t)
		u := newUser(1, "John")
		require.NoError(t, s.InsertOne(ctx, u))

		deleted := true
		_, err := s.UpdateActive(ctx, u.ID, Changes{IsDeleted: &deleted})
		require.NoError(t, err)

		again := newUser(2, "John")
		again.Email = u.Email
		require.NoError(t, s.InsertOne(ctx, again))
		assert.Equal(t, int64(1), countAll(t, s))
	})

	t.Run("update applies changes and bumps updatedAt", func(t *testing.T) {
		s := newStore(t)
		u := newUser(1, "John")
		require.NoError(t, s.InsertOne(ctx, u))
		other := newUser(2, "Jane")
		require.NoError(t, s.InsertOne(ctx, other))

		status := "inactive"
		out, err := s.UpdateActive(ctx, u.ID, Changes{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, "inactive", out.Status)
		assert.Equal(t, "John", out.FirstName)
		assert.False(t, out.UpdatedAt.Before(u.UpdatedAt))

		_, err = s.UpdateActive(ctx, u.ID, Changes{Email: &other.Email})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		_, err = s.UpdateActive(ctx, "00000000-0000-0000-0000-000000000000", Changes{Status: &status})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("insert many reports all rows on success", func(t *testing.T) {
		s := newStore(t)
		batch := []*model.User{newUser(1, "A"), newUser(2, "B"), newUser(3, "C")}

		n, err := s.InsertMany(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, int64(3), countAll(t, s))
	})

	t.Run("insert many stops at the first duplicate", func(t *testing.T) {
		s := newStore(t)
		batch := []*model.User{newUser(1, "A"), newUser(2, "B"), newUser(3, "C"), newUser(4, "D"), newUser(5, "E")}
		batch[2].Email = batch[0].Email

		n, err := s.InsertMany(ctx, batch)
		var bulk *BulkWriteError
		require.ErrorAs(t, err, &bulk)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.Equal(t, 2, bulk.Inserted)
		assert.Equal(t, 2, n)
		assert.Equal(t, int64(bulk.Inserted), countAll(t, s))
	})

	t.Run("insert many against existing email", func(t *testing.T) {
		s := newStore(t)
		existing := newUser(9, "Z")
		require.NoError(t, s.InsertOne(ctx, existing))

		batch := []*model.User{newUser(1, "A"), newUser(2, "B")}
		batch[0].Email = existing.Email

		_, err := s.InsertMany(ctx, batch)
		var bulk *BulkWriteError
		require.ErrorAs(t, err, &bulk)
		assert.Equal(t, 0, bulk.Inserted)
		assert.Equal(t, int64(1), countAll(t, s))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
