package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user-service/internal/model"
	"user-service/internal/query"
	"user-service/prometheus"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// DefaultBatchSize is used when the store is created without a batch size
const DefaultBatchSize = 500

// GormStore keeps users in a SQL database through gorm
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

var _ UserStore = (*GormStore)(nil)

// NewGormStore creates a store on db. batchSize bounds the rows per INSERT.
func NewGormStore(db *gorm.DB, batchSize int) *GormStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GormStore{db: db, batchSize: batchSize}
}

// active scopes a query to users that are not soft deleted and match filter
func (s *GormStore) active(ctx context.Context, filter query.Filter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&model.User{}).Where("is_deleted = ?", false)
	for _, c := range filter.Conditions {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: c.Field.Column}, Value: c.Value})
	}
	return tx
}

func (s *GormStore) Find(ctx context.Context, opts query.FindOptions) ([]model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	tx := s.active(ctx, opts.Filter)
	if opts.SortField != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: opts.SortField.Column},
			Desc:   opts.Descending,
		})
	}

	var users []model.User
	err := tx.Order("id").
		Offset(opts.Skip).
		Limit(opts.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

func (s *GormStore) Count(ctx context.Context, filter query.Filter) (int64, error) {
	defer prometheus.TrackDBOperation("count")(time.Now())

	var total int64
	if err := s.active(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (s *GormStore) InsertOne(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

// InsertMany writes users in batches outside a transaction. A failed batch
// is replayed row by row so the reported count is exact.
func (s *GormStore) InsertMany(ctx context.Context, users []*model.User) (int, error) {
	defer prometheus.TrackDBOperation("insert_many")(time.Now())

	tx := s.db.WithContext(ctx).Session(&gorm.Session{SkipDefaultTransaction: true})

	inserted := 0
	for start := 0; start < len(users); start += s.batchSize {
		end := min(start+s.batchSize, len(users))
		batch := users[start:end]

		if err := tx.Create(batch).Error; err == nil {
			inserted += len(batch)
			continue
		}

		for _, u := range batch {
			if err := tx.Create(u).Error; err != nil {
				return inserted, partial(inserted, translate(err))
			}
			inserted++
		}
	}
	return inserted, nil
}

func (s *GormStore) UpdateActive(ctx context.Context, id string, changes Changes) (*model.User, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	cols := changes.columns()
	cols["updated_at"] = s.db.NowFunc()

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(cols)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps unique violations from either driver onto ErrDuplicateEmail
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.Message)
	}
	return err
}
