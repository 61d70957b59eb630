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
	"errors"
	"math"
	"time"

	. "github.com/PelionIoT/topology/logging"

	"github.com/coreos/etcd/raft"
	"github.com/coreos/etcd/raft/raftpb"
	"golang.org/x/net/context"
)

// Limit on the number of entries that can accumulate before a snapshot and compaction occurs
const LogCompactionSize = 1000

var ENodeStopped = errors.New("The raft node is not running")

type RaftNodeConfig struct {
	ID           uint64
	TickInterval time.Duration
	Storage      *RaftMemoryStorage
	GetSnapshot  func() ([]byte, error)
}

// RaftNode drives a single voter etcd raft node. Proposals are delivered back
// through the committed entry callback once they are part of the log.
type RaftNode struct {
	config               *RaftNodeConfig
	node                 raft.Node
	stop                 chan int
	done                 chan int
	lastCommittedIndex   uint64
	onEntryCB            func(raftpb.Entry) error
	onSnapshotCB         func(raftpb.Snapshot) error
	onErrorCB            func(error) error
	currentRaftConfState raftpb.ConfState
}

func NewRaftNode(config *RaftNodeConfig) *RaftNode {
	if config.TickInterval == 0 {
		config.TickInterval = 100 * time.Millisecond
	}

	if config.Storage == nil {
		config.Storage = NewRaftMemoryStorage()
	}

	return &RaftNode{
		config:       config,
		stop:         make(chan int),
		done:         make(chan int),
		onEntryCB:    func(raftpb.Entry) error { return nil },
		onSnapshotCB: func(raftpb.Snapshot) error { return nil },
		onErrorCB:    func(error) error { return nil },
	}
}

// Start runs the node and returns once it leads its cluster. raft drops
// proposals made while a node has no leader.
func (raftNode *RaftNode) Start(ctx context.Context) error {
	if err := raftNode.config.Storage.Open(); err != nil {
		return err
	}

	config := &raft.Config{
		ID:              raftNode.config.ID,
		ElectionTick:    10,
		HeartbeatTick:   1,
		Storage:         raftNode.config.Storage,
		MaxSizePerMsg:   math.MaxUint16,
		MaxInflightMsgs: 256,
	}

	if !raftNode.config.Storage.IsEmpty() {
		raftNode.node = raft.RestartNode(config)
	} else {
		raftNode.node = raft.StartNode(config, []raft.Peer{raft.Peer{ID: raftNode.config.ID}})
	}

	lastSnapshot, _ := raftNode.config.Storage.Snapshot()

	if !raft.IsEmptySnap(lastSnapshot) {
		raftNode.onSnapshotCB(lastSnapshot)
		raftNode.lastCommittedIndex = lastSnapshot.Metadata.Index
	}

	go raftNode.run()

	if err := raftNode.node.Campaign(ctx); err != nil {
		raftNode.Stop()

		return err
	}

	for raftNode.node.Status().Lead != raftNode.config.ID {
		select {
		case <-time.After(raftNode.config.TickInterval):
		case <-ctx.Done():
			raftNode.Stop()

			return ctx.Err()
		}
	}

	Log.Infof("Raft node %d is the leader of its cluster", raftNode.config.ID)

	return nil
}

func (raftNode *RaftNode) Propose(ctx context.Context, proposition []byte) error {
	select {
	case <-raftNode.done:
		return ENodeStopped
	default:
	}

	return raftNode.node.Propose(ctx, proposition)
}

func (raftNode *RaftNode) LastSnapshot() (raftpb.Snapshot, error) {
	return raftNode.config.Storage.Snapshot()
}

func (raftNode *RaftNode) run() {
	ticker := time.NewTicker(raftNode.config.TickInterval)

	defer func() {
		ticker.Stop()
		raftNode.config.Storage.Close()
		raftNode.node.Stop()
		raftNode.currentRaftConfState = raftpb.ConfState{}
		close(raftNode.done)
	}()

	for {
		select {
		case <-ticker.C:
			raftNode.node.Tick()
		case rd := <-raftNode.node.Ready():
			// Persist before anything that depends on the entries
			if err := raftNode.config.Storage.ApplyAll(rd.HardState, rd.Entries, rd.Snapshot); err != nil {
				Log.Criticalf("Raft node %d could not save its state: %v", raftNode.config.ID, err)
				raftNode.onErrorCB(err)

				return
			}

			if !raft.IsEmptySnap(rd.Snapshot) {
				raftNode.onSnapshotCB(rd.Snapshot)
				raftNode.lastCommittedIndex = rd.Snapshot.Metadata.Index
			}

			for _, entry := range rd.CommittedEntries {
				raftNode.lastCommittedIndex = entry.Index

				if entry.Type == raftpb.EntryConfChange {
					if err := raftNode.applyConfigurationChange(entry); err != nil {
						Log.Criticalf("Raft node %d could not apply a configuration change: %v", raftNode.config.ID, err)
						raftNode.onErrorCB(err)

						return
					}

					continue
				}

				if len(entry.Data) == 0 {
					continue
				}

				if err := raftNode.onEntryCB(entry); err != nil {
					Log.Criticalf("Raft node %d could not apply entry %d: %v", raftNode.config.ID, entry.Index, err)
					raftNode.onErrorCB(err)

					return
				}
			}

			if err := raftNode.takeSnapshotIfEnoughEntries(); err != nil {
				Log.Criticalf("Raft node %d could not compact its log: %v", raftNode.config.ID, err)
				raftNode.onErrorCB(err)

				return
			}

			raftNode.node.Advance()
		case <-raftNode.stop:
			return
		}
	}
}

func (raftNode *RaftNode) applyConfigurationChange(entry raftpb.Entry) error {
	var confChange raftpb.ConfChange

	if err := confChange.Unmarshal(entry.Data); err != nil {
		return err
	}

	raftNode.currentRaftConfState = *raftNode.node.ApplyConfChange(confChange)

	return nil
}

func (raftNode *RaftNode) takeSnapshotIfEnoughEntries() error {
	if raftNode.config.GetSnapshot == nil {
		return nil
	}

	lastSnapshot, err := raftNode.config.Storage.Snapshot()

	if err != nil {
		return err
	}

	if raftNode.lastCommittedIndex < lastSnapshot.Metadata.Index {
		return nil
	}

	if raftNode.lastCommittedIndex-lastSnapshot.Metadata.Index < LogCompactionSize {
		return nil
	}

	data, err := raftNode.config.GetSnapshot()

	if err != nil {
		return err
	}

	Log.Infof("Raft node %d compacting entries up to %d", raftNode.config.ID, raftNode.lastCommittedIndex)

	if _, err := raftNode.config.Storage.CreateSnapshot(raftNode.lastCommittedIndex, &raftNode.currentRaftConfState, data); err != nil {
		return err
	}

	return raftNode.config.Storage.Compact(raftNode.lastCommittedIndex)
}

// Stop halts the node loop. It is safe to call more than once.
func (raftNode *RaftNode) Stop() {
	if raftNode.node == nil {
		return
	}

	select {
	case raftNode.stop <- 1:
		<-raftNode.done
	case <-raftNode.done:
	}
}

func (raftNode *RaftNode) OnSnapshot(cb func(raftpb.Snapshot) error) {
	raftNode.onSnapshotCB = cb
}

func (raftNode *RaftNode) OnCommittedEntry(cb func(raftpb.Entry) error) {
	raftNode.onEntryCB = cb
}

func (raftNode *RaftNode) OnError(cb func(error) error) {
	raftNode.onErrorCB = cb
}
