package storage_test

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
	"fmt"
	"os"
	"path/filepath"

	. "github.com/PelionIoT/topology/storage"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func tempPath() string {
	return filepath.Join(os.TempDir(), "topology-storage-"+uuid.New().String())
}

func collect(iter StorageIterator) map[string]string {
	defer iter.Release()

	result := map[string]string{}

	for iter.Next() {
		result[string(iter.Key())] = string(iter.Value())
	}

	Expect(iter.Error()).Should(BeNil())

	return result
}

var drivers = map[string]func(path string) StorageDriver{
	"LevelDBStorageDriver": func(path string) StorageDriver {
		return NewLevelDBStorageDriver(path, nil)
	},
	"BoltDBStorageDriver": func(path string) StorageDriver {
		return NewBoltDBStorageDriver(path, "topology", nil)
	},
}

var _ = Describe("StorageDriver", func() {
	for name, newDriver := range drivers {
		name := name
		newDriver := newDriver

		Describe(name, func() {
			var path string
			var driver StorageDriver

			BeforeEach(func() {
				path = tempPath()
				driver = newDriver(path)

				Expect(driver.Open()).Should(BeNil())
			})

			AfterEach(func() {
				driver.Close()
				os.RemoveAll(path)
			})

			It("should return nil for keys that were never written", func() {
				values, err := driver.Get([][]byte{[]byte("a"), nil})

				Expect(err).Should(BeNil())
				Expect(values).Should(Equal([][]byte{nil, nil}))
			})

			It("should apply puts and deletes in a batch", func() {
				Expect(driver.Batch(NewBatch().Put([]byte("a"), []byte("1")).Put([]byte("b"), []byte("2")))).Should(BeNil())
				Expect(driver.Batch(NewBatch().Delete([]byte("a")).Put([]byte("c"), []byte("3")))).Should(BeNil())

				values, err := driver.Get([][]byte{[]byte("a"), []byte("b"), []byte("c")})

				Expect(err).Should(BeNil())
				Expect(values).Should(Equal([][]byte{nil, []byte("2"), []byte("3")}))
			})

			It("should iterate over every key matching the prefixes once", func() {
				batch := NewBatch()
				batch.Put([]byte("history.1"), []byte("one"))
				batch.Put([]byte("history.2"), []byte("two"))
				batch.Put([]byte("historyx"), []byte("other"))
				batch.Put([]byte("topology"), []byte("t"))

				Expect(driver.Batch(batch)).Should(BeNil())

				iter, err := driver.GetMatches([][]byte{[]byte("history."), []byte("history.1")})

				Expect(err).Should(BeNil())
				Expect(collect(iter)).Should(Equal(map[string]string{
					"history.1": "one",
					"history.2": "two",
				}))
			})

			It("should keep its data across a restart", func() {
				Expect(driver.Batch(NewBatch().Put([]byte("a"), []byte("1")))).Should(BeNil())
				Expect(driver.Close()).Should(BeNil())
				Expect(driver.Open()).Should(BeNil())

				values, err := driver.Get([][]byte{[]byte("a")})

				Expect(err).Should(BeNil())
				Expect(values).Should(Equal([][]byte{[]byte("1")}))
			})

			It("should keep its data after a compaction", func() {
				for i := 0; i < 100; i++ {
					Expect(driver.Batch(NewBatch().Put([]byte("a"), []byte(fmt.Sprintf("%d", i))).Put([]byte(fmt.Sprintf("b%d", i)), []byte("x")))).Should(BeNil())
				}

				Expect(driver.Compact()).Should(BeNil())

				values, err := driver.Get([][]byte{[]byte("a"), []byte("b99")})

				Expect(err).Should(BeNil())
				Expect(values).Should(Equal([][]byte{[]byte("99"), []byte("x")}))
			})

			It("should refuse requests once closed", func() {
				Expect(driver.Close()).Should(BeNil())

				Expect(driver.Compact()).Should(Equal(EClosed))

				_, err := driver.Get([][]byte{[]byte("a")})
				Expect(err).Should(Equal(EClosed))
				Expect(driver.Batch(NewBatch())).Should(Equal(EClosed))
			})
		})
	}
})

var _ = Describe("Batch", func() {
	It("should order its operations by key", func() {
		batch := NewBatch().Put([]byte("b"), nil).Delete([]byte("a")).Put([]byte("ab"), nil)
		keys := []string{}

		for _, op := range batch.SortedOps() {
			keys = append(keys, string(op.Key()))
		}

		Expect(keys).Should(Equal([]string{"a", "ab", "b"}))
	})

	It("should keep only the last operation for a key", func() {
		batch := NewBatch().Put([]byte("a"), []byte("1")).Delete([]byte("a"))

		Expect(batch.Size()).Should(Equal(1))
		Expect(batch.SortedOps()[0].IsDelete()).Should(BeTrue())
	})
})
