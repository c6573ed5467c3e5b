package repository

import "github.com/NamanBalaji/vidloader/internal/item"

// Repository persists item records keyed by identifier.
type Repository interface {
	Save(rec item.Record) error
	Find(identifier string) (item.Record, error)
	FindAll() ([]item.Record, error)
	Delete(identifier string) error
}
