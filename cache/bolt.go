// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"encoding/binary"
	"encoding/json"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/dolthub/supertimeline/timeline"
)

var boltBucket = []byte("resolved")

// Bolt is a Cache persisted in a bolt database file, surviving across
// process restarts.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the bolt database at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating cache bucket")
	}

	return &Bolt{db: db}, nil
}

func boltKey(key uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], key)
	return buf[:]
}

// Get implements Cache. A corrupt entry counts as a miss.
func (b *Bolt) Get(key uint64) (*timeline.ResolvedTimeline, bool) {
	var resolved *timeline.ResolvedTimeline

	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(boltBucket).Get(boltKey(key))
		if value == nil {
			return nil
		}

		var decoded timeline.ResolvedTimeline
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		resolved = &decoded
		return nil
	})
	if err != nil || resolved == nil {
		return nil, false
	}

	return resolved, true
}

// Put implements Cache.
func (b *Bolt) Put(key uint64, resolved *timeline.ResolvedTimeline) error {
	value, err := json.Marshal(resolved)
	if err != nil {
		return errors.Wrap(err, "encoding resolved timeline")
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(boltKey(key), value)
	})
	return errors.Wrap(err, "storing resolved timeline")
}

// Close implements Cache.
func (b *Bolt) Close() error {
	return b.db.Close()
}
