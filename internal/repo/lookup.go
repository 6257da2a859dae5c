package repo

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// FindOne ищет ровно одну запись по равенству всех фильтров (AND).
// Неизвестная колонка — ErrInvalidFilter; ноль строк — ErrNotFound; больше одной — ErrAmbiguousMatch.
// db может быть транзакцией вызывающего.
func FindOne[T any](ctx context.Context, db *gorm.DB, shape Shape[T], filters map[string]any) (*T, error) {
	if err := checkFilters(shape, filters); err != nil {
		return nil, err
	}

	q := db.WithContext(ctx).Table(shape.Table)
	if len(filters) > 0 {
		q = q.Where(filters)
	}
	var rows []T
	// двух строк достаточно, чтобы отличить единственную от неоднозначной
	if err := q.Order("id ASC").Limit(2).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, shape.Table, filters)
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %s %v", ErrAmbiguousMatch, shape.Table, filters)
	}
}

// FindAll — все строки таблицы в порядке первичного ключа, без пагинации.
func FindAll[T any](ctx context.Context, db *gorm.DB, shape Shape[T]) ([]T, error) {
	rows := []T{}
	if err := db.WithContext(ctx).Table(shape.Table).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func checkFilters[T any](shape Shape[T], filters map[string]any) error {
	var unknown []string
	for k := range filters {
		if !shape.hasColumn(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: unknown column(s) %v for %s", ErrInvalidFilter, unknown, shape.Table)
}
