package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"realty/internal/audit"
	"realty/internal/logs"
	"realty/internal/serial"
)

// Store — CRUD над одной таблицей с журналом аудита.
// Каждая мутация и её запись в журнале идут в одной транзакции.
type Store[T any] struct {
	db    *gorm.DB
	shape Shape[T]
	audit *audit.Recorder
	now   func() time.Time
}

func NewStore[T any](db *gorm.DB, shape Shape[T], rec *audit.Recorder) *Store[T] {
	return &Store[T]{db: db, shape: shape, audit: rec, now: time.Now}
}

func (s *Store[T]) Table() string { return s.shape.Table }

// Create собирает запись из fields и сохраняет её. Журнал: old = {}, new = fields.
func (s *Store[T]) Create(ctx context.Context, actor uint, fields map[string]any) (*T, error) {
	var rec T
	if err := s.apply(&rec, fields); err != nil {
		return nil, err
	}
	newVals, err := s.snapshot(fields)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := s.shape.Base(&rec)
	b.CreatedAt, b.UpdatedAt = now, now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return classify(err)
		}
		return s.record(ctx, tx, b.ID, actor, map[string]any{}, newVals)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, "create", b.ID, actor)
	return &rec, nil
}

// Update меняет только колонки из fields.
// Журнал: old — полный снимок строки до изменения, new — ровно fields.
func (s *Store[T]) Update(ctx context.Context, actor, id uint, fields map[string]any) (*T, error) {
	var probe T
	if err := s.apply(&probe, fields); err != nil {
		return nil, err
	}
	newVals, err := s.snapshot(fields)
	if err != nil {
		return nil, err
	}

	var out *T
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := FindOne(ctx, tx, s.shape, map[string]any{"id": id})
		if err != nil {
			return err
		}
		oldVals, err := s.snapshot(s.shape.Values(rec))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInternal, err)
		}
		if err := s.apply(rec, fields); err != nil {
			return err
		}
		s.shape.Base(rec).UpdatedAt = s.now().UTC()

		cols := append(sortedKeys(fields), "updated_at")
		if err := tx.Model(rec).Select(cols).Updates(rec).Error; err != nil {
			return classify(err)
		}
		if err := s.record(ctx, tx, id, actor, oldVals, newVals); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, "update", id, actor)
	return out, nil
}

// Delete удаляет запись. Журнал: old — полный снимок, new = {}.
// Запись, на которую ссылаются другие, не удаляется: ErrConstraintViolation.
func (s *Store[T]) Delete(ctx context.Context, actor, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := FindOne(ctx, tx, s.shape, map[string]any{"id": id})
		if err != nil {
			return err
		}
		oldVals, err := s.snapshot(s.shape.Values(rec))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInternal, err)
		}
		if err := tx.Delete(rec).Error; err != nil {
			return classify(err)
		}
		return s.record(ctx, tx, id, actor, oldVals, map[string]any{})
	})
	if err != nil {
		return err
	}
	s.log(ctx, "delete", id, actor)
	return nil
}

// FetchAll — все записи в порядке id.
func (s *Store[T]) FetchAll(ctx context.Context) ([]T, error) {
	return FindAll(ctx, s.db, s.shape)
}

func (s *Store[T]) FindOne(ctx context.Context, filters map[string]any) (*T, error) {
	return FindOne(ctx, s.db, s.shape, filters)
}

func (s *Store[T]) Get(ctx context.Context, id uint) (*T, error) {
	return FindOne(ctx, s.db, s.shape, map[string]any{"id": id})
}

func (s *Store[T]) apply(rec *T, fields map[string]any) error {
	for _, col := range sortedKeys(fields) {
		if err := s.shape.Set(rec, col, fields[col]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store[T]) snapshot(m map[string]any) (map[string]any, error) {
	c, err := serial.Map(m)
	if err != nil {
		return nil, err
	}
	return s.shape.redact(c), nil
}

func (s *Store[T]) record(ctx context.Context, tx *gorm.DB, id, actor uint, oldVals, newVals map[string]any) error {
	_, err := s.audit.Record(ctx, tx, audit.Entry{
		Table:     s.shape.Table,
		RecordID:  id,
		ChangedBy: actor,
		Old:       oldVals,
		New:       newVals,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}

func (s *Store[T]) log(ctx context.Context, op string, id, actor uint) {
	logs.Logger.WithContext(ctx).WithFields(logrus.Fields{
		"table":     s.shape.Table,
		"record_id": id,
		"actor":     actor,
	}).Info(op)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
