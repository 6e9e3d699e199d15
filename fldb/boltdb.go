package fldb

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/kaiakz/rcopy-os/rcopy"
)

// BoltDB keeps the server's fingerprint cache: one bucket per destination root,
// wire path as key, an FInfo record as value.
type BoltDB struct {
	db     *bolt.DB
	bucket []byte
}

var _ rcopy.FingerprintCache = (*BoltDB)(nil)

func Open(path string, bucket []byte) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating bucket %s", bucket)
	}
	return &BoltDB{
		db:     db,
		bucket: bucket,
	}, nil
}

func (c *BoltDB) Close() error {
	return c.db.Close()
}

func (c *BoltDB) Get(name string) (*rcopy.CacheEntry, error) {
	var entry *rcopy.CacheEntry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get([]byte(name))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction; Unmarshal copies what it keeps
		info, err := Unmarshal(v)
		if err != nil {
			return errors.Wrapf(err, "decoding entry %s", name)
		}
		entry = info.Entry()
		return nil
	})
	return entry, err
}

func (c *BoltDB) Put(name string, entry *rcopy.CacheEntry) error {
	value := NewFInfo(entry).Marshal()
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(name), value)
	})
}

func (c *BoltDB) Delete(name string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete([]byte(name))
	})
}
