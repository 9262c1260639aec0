package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	LockUpdate = "UPDATE"
	LockShare  = "SHARE"
)

// Lock adds a FOR UPDATE or FOR SHARE row lock to the next query. sqlite has
// no row locks and already serializes writers, so it is left untouched.
func Lock(tx *gorm.DB, strength string) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == TypeSQLite {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}
