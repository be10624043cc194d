package service

import (
	"context"
	"errors"
	"strings"

	"user-service/internal/apperror"
	"user-service/internal/model"
	"user-service/internal/query"
	"user-service/internal/repository"
	"user-service/pkg/logger"
	"user-service/prometheus"

	"go.uber.org/zap"
)

// ImportResult is the outcome of one import batch
type ImportResult struct {
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
}

// Source column names per user field, first match wins
var (
	firstNameColumns       = []string{"firstname", "firstName", "first_name"}
	lastNameColumns        = []string{"lastName", "lastname", "last_name"}
	emailColumns           = []string{"email"}
	phoneColumns           = []string{"phone"}
	statusColumns          = []string{"status"}
	marketingSourceColumns = []string{"provider", "marketingSource", "marketing_source"}
	birthDateColumns       = []string{"birth_date", "birthDate"}
)

// Importer turns parsed CSV rows into users and reconciles the insert outcome
type Importer struct {
	store repository.UserStore
}

func NewImporter(store repository.UserStore) *Importer {
	return &Importer{store: store}
}

// MapRow builds a candidate user from one raw row. Missing columns stay empty
// and a birth date that does not parse is left as the zero date.
func MapRow(row map[string]string) model.User {
	user := model.User{
		FirstName:       pick(row, firstNameColumns),
		LastName:        pick(row, lastNameColumns),
		Email:           pick(row, emailColumns),
		Phone:           pick(row, phoneColumns),
		Status:          pick(row, statusColumns),
		MarketingSource: pick(row, marketingSourceColumns),
	}
	if raw := pick(row, birthDateColumns); raw != "" {
		if t, err := query.ParseDate(raw); err == nil {
			user.BirthDate = t
		}
	}
	return user
}

func pick(row map[string]string, columns []string) string {
	for _, col := range columns {
		if v, ok := row[col]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// ImportBatch inserts every row as a user. Rows rejected by the store are
// only counted; the call fails only when the store could not be used at all.
func (i *Importer) ImportBatch(ctx context.Context, rows []map[string]string) (ImportResult, error) {
	log := logger.FromContext(ctx)

	total := len(rows)
	if total == 0 {
		return ImportResult{}, nil
	}

	candidates := make([]*model.User, total)
	for idx, row := range rows {
		u := MapRow(row)
		candidates[idx] = &u
	}

	inserted, err := i.store.InsertMany(context.WithoutCancel(ctx), candidates)
	if err != nil {
		var bulk *repository.BulkWriteError
		if !errors.As(err, &bulk) {
			prometheus.RecordUserOperation("import", err)
			log.Error("Import failed", zap.Int("rows", total), zap.Error(err))
			return ImportResult{}, apperror.Store("insert_many", err)
		}
		inserted = bulk.Inserted
		log.Warn("Import stopped before the last row",
			zap.Int("rows", total),
			zap.Int("inserted", inserted),
			zap.Error(bulk.Err))
	}

	result := reconcile(total, inserted)
	prometheus.RecordUserOperation("import", nil)
	prometheus.RecordImport(result.SuccessCount, result.FailedCount)
	log.Info("Users imported",
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount))
	return result, nil
}

// reconcile derives the counts from what the store says it persisted
func reconcile(total, inserted int) ImportResult {
	inserted = max(0, min(inserted, total))
	return ImportResult{SuccessCount: inserted, FailedCount: total - inserted}
}
