package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Visibility selects which rows a read returns. Every read of hideable content
// takes one explicitly; there is no default scope.
type Visibility int

const (
	// OnlyVisible serves end users: hidden rows are filtered out.
	OnlyVisible Visibility = iota
	// IncludeHidden serves moderator tooling and an owner's own content.
	IncludeHidden
)

// apply restricts q to visible rows of table when v is OnlyVisible.
func (v Visibility) apply(q *gorm.DB, table string) *gorm.DB {
	if v == IncludeHidden {
		return q
	}
	return q.Where(clause.Eq{Column: clause.Column{Table: table, Name: "is_hidden"}, Value: false})
}

// scope is apply as a preload condition, so embedded rows of table honour v.
// A filtered belongs-to association is left nil.
func (v Visibility) scope(table string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return v.apply(q, table)
	}
}

// lockForUpdate takes a row lock where the dialect supports one. sqlite
// serialises writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
