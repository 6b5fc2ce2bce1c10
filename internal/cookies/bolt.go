package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/and161185/nullscape-admin/internal/errs"
)

var cookieBucket = []byte("cookies")

// Bolt keeps cookies in a bbolt database, one key per cookie name.
type Bolt struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBolt wraps an open bbolt database.
func NewBolt(db *bbolt.DB) *Bolt {
	return &Bolt{db: db, now: time.Now}
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string, options *bbolt.Options) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening cookie db: %w", err)
	}
	return NewBolt(db), nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) Get(_ context.Context, name string) (string, error) {
	var c Cookie
	err := b.db.View(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(cookieBucket)
		if bk == nil {
			return errs.ErrNoToken
		}
		data := bk.Get([]byte(name))
		if data == nil {
			return errs.ErrNoToken
		}
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return "", err
	}
	if c.Expired(b.now()) {
		return "", errs.ErrNoToken
	}
	return c.Value, nil
}

func (b *Bolt) Set(_ context.Context, c Cookie) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(cookieBucket)
		if err != nil {
			return err
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return bk.Put([]byte(c.Name), data)
	})
}

func (b *Bolt) Remove(_ context.Context, name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(cookieBucket)
		if bk == nil {
			return nil
		}
		return bk.Delete([]byte(name))
	})
}
