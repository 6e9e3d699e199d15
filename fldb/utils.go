package fldb

import (
	bolt "go.etcd.io/bbolt"
)

// Iter calls fn for every entry in the cache, in key order.
func (c *BoltDB) Iter(fn func(name string, info *FInfo) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(c.bucket).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			info, err := Unmarshal(v)
			if err != nil {
				return err
			}
			if err := fn(string(k), info); err != nil {
				return err
			}
		}
		return nil
	})
}
