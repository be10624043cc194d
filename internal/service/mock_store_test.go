package service

import (
	"context"

	"user-service/internal/model"
	"user-service/internal/query"
	"user-service/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Find(ctx context.Context, opts query.FindOptions) ([]model.User, error) {
	args := m.Called(ctx, opts)
	if users := args.Get(0); users != nil {
		return users.([]model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) Count(ctx context.Context, filter query.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) InsertOne(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) InsertMany(ctx context.Context, users []*model.User) (int, error) {
	args := m.Called(ctx, users)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) UpdateActive(ctx context.Context, id string, changes repository.Changes) (*model.User, error) {
	args := m.Called(ctx, id, changes)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
