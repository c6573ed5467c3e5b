package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/NamanBalaji/vidloader/internal/item"
)

const (
	itemsBucket    = "items"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

var (
	// ErrItemNotFound is returned when an item cannot be found
	ErrItemNotFound = errors.New("item not found")

	ErrEmptyIdentifier = errors.New("item identifier cannot be empty")
)

// BboltRepository implements Repository on a bbolt database
type BboltRepository struct {
	db *bbolt.DB
}

// NewBboltRepository creates a new bbolt repository
func NewBboltRepository(dbPath string) (*BboltRepository, error) {
	options := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bbolt.Open(dbPath, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &BboltRepository{
		db: db,
	}

	if err := repo.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// initialize sets up buckets and schema
func (r *BboltRepository) initialize() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(itemsBucket))
		if err != nil {
			return fmt.Errorf("failed to create items bucket: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		err = meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion)))
		if err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}

		return nil
	})
}

// Save inserts or replaces the record stored under its identifier
func (r *BboltRepository) Save(rec item.Record) error {
	if rec.Identifier() == "" {
		return ErrEmptyIdentifier
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", itemsBucket)
		}

		if err := bucket.Put([]byte(rec.Identifier()), data); err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}

		return nil
	})
}

// Find retrieves a record by identifier
func (r *BboltRepository) Find(identifier string) (item.Record, error) {
	if identifier == "" {
		return item.Record{}, ErrEmptyIdentifier
	}

	var data []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", itemsBucket)
		}

		// Values are only valid inside the transaction.
		v := bucket.Get([]byte(identifier))
		if v == nil {
			return ErrItemNotFound
		}
		data = append([]byte(nil), v...)

		return nil
	})
	if err != nil {
		return item.Record{}, err
	}

	var rec item.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return item.Record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return rec, nil
}

// FindAll retrieves all records ordered by identifier
func (r *BboltRepository) FindAll() ([]item.Record, error) {
	var records []item.Record

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", itemsBucket)
		}

		return bucket.ForEach(func(k, v []byte) error {
			var rec item.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal item %s: %w", k, err)
			}

			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes a record
func (r *BboltRepository) Delete(identifier string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", itemsBucket)
		}

		if bucket.Get([]byte(identifier)) == nil {
			return ErrItemNotFound
		}

		return bucket.Delete([]byte(identifier))
	})
}

// Close closes the database
func (r *BboltRepository) Close() error {
	return r.db.Close()
}
