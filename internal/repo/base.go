package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/pkg/db"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

// Base is embedded by every domain repository.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB binds ctx to the connection. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// NotFound maps gorm.ErrRecordNotFound to CodeNotFound. Other errors pass through.
func NotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	}
	return err
}

// Conflict maps a unique-constraint violation to CodeConflict. Other errors
// pass through.
func Conflict(err error, message string) error {
	if err != nil && db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	}
	return err
}
