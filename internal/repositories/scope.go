package repositories

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeOwner
)

// TaskScope restricts task queries to the rows a principal may see. The zero
// value matches nothing.
type TaskScope struct {
	kind    scopeKind
	ownerID uuid.UUID
}

func AllTasks() TaskScope { return TaskScope{kind: scopeAll} }

func OwnedBy(userID uuid.UUID) TaskScope { return TaskScope{kind: scopeOwner, ownerID: userID} }

func NoTasks() TaskScope { return TaskScope{kind: scopeNone} }

// IsAll reports whether the scope imposes no restriction.
func (s TaskScope) IsAll() bool { return s.kind == scopeAll }

// Owner returns the owning user id for an owner scope.
func (s TaskScope) Owner() (uuid.UUID, bool) {
	return s.ownerID, s.kind == scopeOwner
}

func (s TaskScope) apply(db *gorm.DB) *gorm.DB {
	switch s.kind {
	case scopeAll:
		return db
	case scopeOwner:
		return db.Where("tasks.user_id = ?", s.ownerID)
	default:
		return db.Where("1 = 0")
	}
}

// TaskFilter narrows an already scoped task query. Nil fields are ignored.
type TaskFilter struct {
	Completed *bool
	UserID    *uuid.UUID
}

func (f TaskFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Completed != nil {
		db = db.Where("tasks.completed = ?", *f.Completed)
	}
	if f.UserID != nil {
		db = db.Where("tasks.user_id = ?", *f.UserID)
	}
	return db
}
