package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// IsDuplicate: нарушение уникального индекса на любом из поддерживаемых драйверов.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == mysqlDuplicateEntry
	}
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg.Code == pgUniqueViolation
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return string(pqe.Code) == pgUniqueViolation
	}
	// sqlite и прочие: по тексту
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate entry") || strings.Contains(s, "unique constraint")
}

// DuplicateOn сообщает, что нарушен уникальный индекс, имя которого (или имя колонки,
// как пишет sqlite) содержит marker.
func DuplicateOn(err error, marker string) bool {
	if !IsDuplicate(err) {
		return false
	}
	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.ConstraintName != "" {
		return strings.Contains(pg.ConstraintName, marker)
	}
	return strings.Contains(err.Error(), marker)
}
