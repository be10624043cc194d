package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user-service/internal/model"
	"user-service/internal/query"
)

var (
	// ErrNotFound is returned when no active user has the requested ID
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write collides with the email index
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserStore is the persistence port used by the service layer
type UserStore interface {
	query.Finder
	InsertOne(ctx context.Context, user *model.User) error
	// InsertMany inserts users in order and stops at the first failing row.
	// When some rows may have been written the error is a *BulkWriteError.
	InsertMany(ctx context.Context, users []*model.User) (int, error)
	// UpdateActive applies changes to a user that is not soft deleted and
	// returns the updated record.
	UpdateActive(ctx context.Context, id string, changes Changes) (*model.User, error)
	Ping(ctx context.Context) error
}

// BulkWriteError reports an insert that stopped part way through
type BulkWriteError struct {
	Inserted int
	Err      error
}

func (e *BulkWriteError) Error() string {
	return fmt.Sprintf("bulk insert stopped after %d rows: %v", e.Inserted, e.Err)
}

func (e *BulkWriteError) Unwrap() error {
	return e.Err
}

// partial decides whether a failed bulk insert is reported as a partial outcome.
// Nothing written and no row-level cause means the store itself failed.
func partial(inserted int, err error) error {
	if inserted == 0 && !errors.Is(err, ErrDuplicateEmail) {
		return err
	}
	return &BulkWriteError{Inserted: inserted, Err: err}
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	BirthDate       *time.Time
	Status          *string
	MarketingSource *string
	IsDeleted       *bool
}

// Apply copies the set fields onto u
func (c Changes) Apply(u *model.User) {
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Phone != nil {
		u.Phone = *c.Phone
	}
	if c.BirthDate != nil {
		u.BirthDate = *c.BirthDate
	}
	if c.Status != nil {
		u.Status = *c.Status
	}
	if c.MarketingSource != nil {
		u.MarketingSource = *c.MarketingSource
	}
	if c.IsDeleted != nil {
		u.IsDeleted = *c.IsDeleted
	}
}

// columns maps the set fields to their SQL columns
func (c Changes) columns() map[string]any {
	cols := map[string]any{}
	if c.FirstName != nil {
		cols["first_name"] = *c.FirstName
	}
	if c.LastName != nil {
		cols["last_name"] = *c.LastName
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.Phone != nil {
		cols["phone"] = *c.Phone
	}
	if c.BirthDate != nil {
		cols["birth_date"] = *c.BirthDate
	}
	if c.Status != nil {
		cols["status"] = *c.Status
	}
	if c.MarketingSource != nil {
		cols["marketing_source"] = *c.MarketingSource
	}
	if c.IsDeleted != nil {
		cols["is_deleted"] = *c.IsDeleted
	}
	return cols
}
