package raft

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
	"github.com/coreos/etcd/raft"
	"github.com/coreos/etcd/raft/raftpb"
)

// RaftMemoryStorage keeps the raft log in memory. The state machine it feeds
// persists what it needs on its own.
type RaftMemoryStorage struct {
	*raft.MemoryStorage
	isEmpty bool
}

func NewRaftMemoryStorage() *RaftMemoryStorage {
	return &RaftMemoryStorage{
		MemoryStorage: raft.NewMemoryStorage(),
		isEmpty:       true,
	}
}

func (raftStorage *RaftMemoryStorage) Open() error {
	return nil
}

func (raftStorage *RaftMemoryStorage) Close() error {
	return nil
}

func (raftStorage *RaftMemoryStorage) IsEmpty() bool {
	return raftStorage.isEmpty
}

// ApplyAll records one Ready batch: snapshot first, then hard state, then
// entries.
func (raftStorage *RaftMemoryStorage) ApplyAll(hs raftpb.HardState, ents []raftpb.Entry, snap raftpb.Snapshot) error {
	if !raft.IsEmptySnap(snap) {
		if err := raftStorage.ApplySnapshot(snap); err != nil {
			return err
		}

		raftStorage.isEmpty = false
	}

	if !raft.IsEmptyHardState(hs) {
		if err := raftStorage.SetHardState(hs); err != nil {
			return err
		}

		raftStorage.isEmpty = false
	}

	if len(ents) != 0 {
		if err := raftStorage.Append(ents); err != nil {
			return err
		}

		raftStorage.isEmpty = false
	}

	return nil
}
