package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"user-service/internal/model"
	"user-service/internal/query"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory UserStore. It enforces the same active-email
// uniqueness as the SQL index and stops bulk inserts at the first failure.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
	now   func() time.Time
}

var _ UserStore = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for createdAt and updatedAt
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		users: make(map[string]*model.User),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Find(ctx context.Context, opts query.FindOptions) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(opts.Filter)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if opts.SortField != nil {
			if c := opts.SortField.Compare(a, b); c != 0 {
				if opts.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return a.ID < b.ID
	})

	if opts.Skip >= len(matched) {
		return []model.User{}, nil
	}
	matched = matched[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	out := make([]model.User, len(matched))
	for i, u := range matched {
		out[i] = *u
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter query.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.matching(filter))), nil
}

func (s *MemoryStore) matching(filter query.Filter) []*model.User {
	var out []*model.User
	for _, u := range s.users {
		if filter.Match(u) {
			out = append(out, u)
		}
	}
	return out
}

func (s *MemoryStore) InsertOne(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(user)
}

func (s *MemoryStore) InsertMany(ctx context.Context, users []*model.User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range users {
		if err := s.insert(u); err != nil {
			return i, partial(i, err)
		}
	}
	return len(users), nil
}

// insert must be called with the write lock held
func (s *MemoryStore) insert(user *model.User) error {
	if s.emailTaken(user.Email, "") {
		return ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	s.users[stored.ID] = &stored
	return nil
}

func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && !u.IsDeleted && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) UpdateActive(ctx context.Context, id string, changes Changes) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok || current.IsDeleted {
		return nil, ErrNotFound
	}

	next := *current
	changes.Apply(&next)
	if !next.IsDeleted && next.Email != current.Email && s.emailTaken(next.Email, id) {
		return nil, ErrDuplicateEmail
	}
	next.UpdatedAt = s.now()

	s.users[id] = &next
	out := next
	return &out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
