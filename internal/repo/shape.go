package repo

import (
	"slices"

	"realty/internal/models"
)

// Redacted — чем заменяются скрытые колонки в журнале.
const Redacted = "***"

// Shape описывает тип записи для Store и FindOne явно, без интроспекции ORM.
type Shape[T any] struct {
	// Table — имя таблицы, оно же table_name в журнале.
	Table string
	// Columns — все колонки, включая id и временные метки. По ним разрешены фильтры.
	Columns []string
	// Base даёт доступ к id и временным меткам.
	Base func(*T) *models.Base
	// Values — снимок колонок записи (сырые значения, до канонизации).
	Values func(*T) map[string]any
	// Set пишет одну колонку. Незаписываемая колонка или тип значения — ErrInvalidField.
	Set func(rec *T, col string, v any) error
	// Redact — колонки, которые в журнал попадают как "***".
	Redact []string
}

func (s Shape[T]) hasColumn(col string) bool { return slices.Contains(s.Columns, col) }

func (s Shape[T]) redact(m map[string]any) map[string]any {
	for _, col := range s.Redact {
		if _, ok := m[col]; ok {
			m[col] = Redacted
		}
	}
	return m
}
