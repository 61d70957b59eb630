package storage

//
// Copyright (c) 2019 ARM Limited.
//
// SPDX-License-Identifier: MIT
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

import (
	"bytes"
	"time"

	. "github.com/PelionIoT/topology/logging"

	bolt "go.etcd.io/bbolt"
)

type boltEntry struct {
	prefix []byte
	key    []byte
	value  []byte
}

// BoltDBStorageIterator walks the entries matched inside one read
// transaction. Entries are copied out of the transaction so the iterator
// holds no lock on the database.
type BoltDBStorageIterator struct {
	entries []boltEntry
	current *boltEntry
}

func (iter *BoltDBStorageIterator) Next() bool {
	if len(iter.entries) == 0 {
		iter.current = nil

		return false
	}

	iter.current = &iter.entries[0]
	iter.entries = iter.entries[1:]

	return true
}

func (iter *BoltDBStorageIterator) Prefix() []byte {
	if iter.current == nil {
		return nil
	}

	return iter.current.prefix
}

func (iter *BoltDBStorageIterator) Key() []byte {
	if iter.current == nil {
		return nil
	}

	return iter.current.key
}

func (iter *BoltDBStorageIterator) Value() []byte {
	if iter.current == nil {
		return nil
	}

	return iter.current.value
}

func (iter *BoltDBStorageIterator) Release() {
	iter.entries = nil
	iter.current = nil
}

func (iter *BoltDBStorageIterator) Error() error {
	return nil
}

type BoltDBStorageDriver struct {
	file       string
	rootBucket []byte
	options    *bolt.Options
	db         *bolt.DB
}

func NewBoltDBStorageDriver(file string, rootBucket string, options *bolt.Options) *BoltDBStorageDriver {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	}

	return &BoltDBStorageDriver{file, []byte(rootBucket), options, nil}
}

func (driver *BoltDBStorageDriver) Open() error {
	driver.Close()

	db, err := bolt.Open(driver.file, 0600, driver.options)

	if err != nil {
		prometheusRecordStorageError("open()", driver.file)

		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(driver.rootBucket)

		return err
	})

	if err != nil {
		prometheusRecordStorageError("open()", driver.file)

		Log.Criticalf("Unable to create root bucket %s in %s: %v", driver.rootBucket, driver.file, err)

		db.Close()

		return err
	}

	driver.db = db

	return nil
}

func (driver *BoltDBStorageDriver) Close() error {
	if driver.db == nil {
		return nil
	}

	err := driver.db.Close()

	driver.db = nil

	return err
}

// Recover reopens the database. bolt has no repair procedure of its own.
func (driver *BoltDBStorageDriver) Recover() error {
	return driver.Open()
}

func (driver *BoltDBStorageDriver) Compact() error {
	if driver.db == nil {
		return EClosed
	}

	return nil
}

func (driver *BoltDBStorageDriver) Get(keys [][]byte) ([][]byte, error) {
	if driver.db == nil {
		return nil, EClosed
	}

	if keys == nil {
		return [][]byte{}, nil
	}

	values := make([][]byte, len(keys))

	err := driver.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(driver.rootBucket)

		if bucket == nil {
			return ECorrupted
		}

		for i, key := range keys {
			if key == nil {
				continue
			}

			if value := bucket.Get(key); value != nil {
				values[i] = copyBytes(value)
			}
		}

		return nil
	})

	if err != nil {
		prometheusRecordStorageError("get()", driver.file)

		return nil, err
	}

	return values, nil
}

func (driver *BoltDBStorageDriver) GetMatches(keys [][]byte) (StorageIterator, error) {
	if driver.db == nil {
		return nil, EClosed
	}

	keys = consolidateKeys(keys)
	entries := []boltEntry{}

	err := driver.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(driver.rootBucket)

		if bucket == nil {
			return ECorrupted
		}

		cursor := bucket.Cursor()

		for _, prefix := range keys {
			for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
				entries = append(entries, boltEntry{prefix: prefix, key: copyBytes(k), value: copyBytes(v)})
			}
		}

		return nil
	})

	if err != nil {
		prometheusRecordStorageError("getMatches()", driver.file)

		return nil, err
	}

	return &BoltDBStorageIterator{entries: entries}, nil
}

func (driver *BoltDBStorageDriver) Batch(batch *Batch) error {
	if driver.db == nil {
		return EClosed
	}

	if batch == nil {
		return nil
	}

	err := driver.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(driver.rootBucket)

		if bucket == nil {
			return ECorrupted
		}

		for _, op := range batch.SortedOps() {
			var err error

			if op.IsPut() {
				err = bucket.Put(op.Key(), op.Value())
			} else if op.IsDelete() {
				err = bucket.Delete(op.Key())
			}

			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		prometheusRecordStorageError("batch()", driver.file)
	}

	return err
}

func copyBytes(b []byte) []byte {
	result := make([]byte, len(b))
	copy(result, b)

	return result
}
