package service

import (
	"context"
	"errors"
	"strings"

	"user-service/internal/apperror"
	"user-service/internal/model"
	"user-service/internal/query"
	"user-service/internal/repository"
	"user-service/pkg/config"
	"user-service/pkg/logger"
	"user-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService implements create, list, update and soft delete over a UserStore
type UserService struct {
	store        repository.UserStore
	engine       *query.Engine
	defaultLimit int
}

func NewUserService(store repository.UserStore, cfg config.QueryConfig) *UserService {
	return &UserService{
		store:        store,
		engine:       query.NewEngine(store, cfg.MaxLimit),
		defaultLimit: cfg.DefaultLimit,
	}
}

// NewRequest returns a list request carrying the default window
func (s *UserService) NewRequest() query.Request {
	return query.Request{Window: query.DefaultWindow(s.defaultLimit)}
}

// Create stores a new user. The store's email index is the only uniqueness
// check, so concurrent creates with one email resolve to a single winner.
func (s *UserService) Create(ctx context.Context, candidate model.User) (*model.User, error) {
	log := logger.FromContext(ctx)

	user := candidate
	user.ID = uuid.NewString()
	user.Email = strings.TrimSpace(user.Email)
	user.IsDeleted = false

	err := s.store.InsertOne(context.WithoutCancel(ctx), &user)
	prometheus.RecordUserOperation("create", err)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			log.Warn("User with this email already exists", zap.String("email", user.Email))
			return nil, &apperror.ConflictError{Email: user.Email}
		}
		log.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, apperror.Store("insert", err)
	}

	log.Info("User created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return &user, nil
}

// List returns one page of active users matching req
func (s *UserService) List(ctx context.Context, req query.Request) ([]model.User, query.Paging, error) {
	filter, err := query.Build(req)
	if err != nil {
		return nil, query.Paging{}, err
	}

	users, paging, err := s.engine.Execute(ctx, filter, req.Window)
	prometheus.RecordUserOperation("list", err)
	if err != nil {
		if apperror.IsStore(err) {
			logger.FromContext(ctx).Error("Failed to list users", zap.Error(err))
		}
		return nil, query.Paging{}, err
	}

	logger.FromContext(ctx).Debug("Users listed",
		zap.Int("count", len(users)),
		zap.Int64("total", paging.Total),
		zap.Int("page", paging.Page),
		zap.Int("limit", paging.Limit))
	return users, paging, nil
}

// Update applies a partial update to an active user.
// The deleted flag cannot be changed through it.
func (s *UserService) Update(ctx context.Context, id string, changes repository.Changes) (*model.User, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	changes.IsDeleted = nil
	if changes.Email != nil {
		trimmed := strings.TrimSpace(*changes.Email)
		changes.Email = &trimmed
	}

	user, err := s.mutate(ctx, "update", id, changes)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) && changes.Email != nil {
			logger.FromContext(ctx).Warn("Email already used by another user", zap.String("email", *changes.Email))
			return nil, &apperror.ConflictError{Email: *changes.Email}
		}
		return nil, apperror.Store("update", err)
	}
	return user, nil
}

// SoftDelete flags an active user as deleted and returns the updated record
func (s *UserService) SoftDelete(ctx context.Context, id string) (*model.User, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	deleted := true
	user, err := s.mutate(ctx, "delete", id, repository.Changes{IsDeleted: &deleted})
	if err != nil {
		return nil, apperror.Store("delete", err)
	}
	return user, nil
}

func (s *UserService) mutate(ctx context.Context, op, id string, changes repository.Changes) (*model.User, error) {
	log := logger.FromContext(ctx).With(zap.String("user_id", id))

	user, err := s.store.UpdateActive(context.WithoutCancel(ctx), id, changes)
	prometheus.RecordUserOperation(op, err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Warn("User not found", zap.String("operation", op))
		return nil, &apperror.NotFoundError{ID: id}
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, err
	case err != nil:
		log.Error("Failed to update user", zap.String("operation", op), zap.Error(err))
		return nil, err
	}

	log.Info("User updated", zap.String("operation", op))
	return user, nil
}

// Ping reports whether the store is reachable
func (s *UserService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ValidateID rejects identifiers that cannot belong to any user
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.Validation("id", "invalid user id %q", id)
	}
	return nil
}
