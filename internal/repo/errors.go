package repo

import (
	"errors"
	"fmt"
	"strings"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrAmbiguousMatch      = errors.New("more than one record matches")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrInvalidField        = errors.New("invalid field")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInternal            = errors.New("internal storage error")
)

// sqlite: SQLITE_CONSTRAINT и все его расширенные коды
const sqliteConstraint = 19

// mysql: дубликат, FK (родитель/потомок), NOT NULL
var mysqlConstraint = map[uint16]bool{
	1048: true, 1062: true, 1216: true, 1217: true, 1451: true, 1452: true, 3819: true,
}

// classify переводит ошибку хранилища в одну из сентинельных.
// Исходное сообщение драйвера сохраняется в цепочке.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isSentinel(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isConstraint(err):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}

func isSentinel(err error) bool {
	for _, s := range []error{ErrNotFound, ErrAmbiguousMatch, ErrInvalidFilter, ErrInvalidField, ErrConstraintViolation, ErrInternal} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

func isConstraint(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// класс 23 — integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraint[myErr.Number]
	}
	var liteErr *gosqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraint
	}
	return false
}
