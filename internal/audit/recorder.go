// Package audit ведёт журнал изменений записей (audit_logs).
// Запись в журнал идёт только через транзакцию мутации; чтение — отдельно.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"realty/internal/models"
)

// ErrNotFound — нет записи журнала с таким id.
var ErrNotFound = errors.New("audit entry not found")

// SystemActor — changed_by для изменений без пользователя (саморегистрация, bootstrap).
const SystemActor uint = 0

type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Entry — то, что пишется в журнал одной мутацией.
type Entry struct {
	Table     string
	RecordID  uint
	ChangedBy uint
	Old       map[string]any
	New       map[string]any
}

// Record добавляет одну запись через tx вызывающего.
// Откат tx откатывает и запись журнала.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, e Entry) (*models.AuditLog, error) {
	if tx == nil {
		return nil, errors.New("audit: nil transaction")
	}
	if e.Table == "" {
		return nil, errors.New("audit: empty table name")
	}
	row := &models.AuditLog{
		Table:     e.Table,
		RecordID:  e.RecordID,
		ChangedBy: e.ChangedBy,
		OldValues: jsonMap(e.Old),
		NewValues: jsonMap(e.New),
		Timestamp: r.now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("audit append %s/%d: %w", e.Table, e.RecordID, err)
	}
	return row, nil
}

// пустая карта, а не NULL: столбцы not null
func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

// -------- чтение --------

func (r *Recorder) List(ctx context.Context) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *Recorder) Get(ctx context.Context, id uint) (*models.AuditLog, error) {
	var e models.AuditLog
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListForRecord — история одной записи в порядке добавления.
func (r *Recorder) ListForRecord(ctx context.Context, table string, recordID uint) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
