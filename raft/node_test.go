package raft_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/PelionIoT/topology/raft"

	"github.com/coreos/etcd/raft/raftpb"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type entryLog struct {
	mu      sync.Mutex
	entries []string
}

func (log *entryLog) append(entry raftpb.Entry) error {
	log.mu.Lock()
	defer log.mu.Unlock()

	log.entries = append(log.entries, string(entry.Data))

	return nil
}

func (log *entryLog) Entries() []string {
	log.mu.Lock()
	defer log.mu.Unlock()

	return append([]string{}, log.entries...)
}

var _ = Describe("RaftNode", func() {
	var node *RaftNode
	var committed *entryLog

	BeforeEach(func() {
		committed = &entryLog{}
		node = NewRaftNode(&RaftNodeConfig{
			ID:           1,
			TickInterval: 10 * time.Millisecond,
		})
		node.OnCommittedEntry(committed.append)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		Expect(node.Start(ctx)).Should(BeNil())
	})

	AfterEach(func() {
		node.Stop()
	})

	It("should deliver proposals in the order they were made", func() {
		for i := 0; i < 5; i++ {
			Expect(node.Propose(context.Background(), []byte(fmt.Sprintf("entry-%d", i)))).Should(BeNil())
		}

		Eventually(committed.Entries, time.Second*5).Should(Equal([]string{"entry-0", "entry-1", "entry-2", "entry-3", "entry-4"}))
	})

	It("should refuse proposals once stopped", func() {
		node.Stop()

		Expect(node.Propose(context.Background(), []byte("late"))).Should(Equal(ENodeStopped))
	})

	It("should take a snapshot once enough entries are committed", func() {
		snapshotNode := NewRaftNode(&RaftNodeConfig{
			ID:           2,
			TickInterval: 10 * time.Millisecond,
			GetSnapshot: func() ([]byte, error) {
				return []byte("state"), nil
			},
		})
		done := make(chan int, LogCompactionSize+10)
		snapshotNode.OnCommittedEntry(func(raftpb.Entry) error {
			done <- 1

			return nil
		})

		Expect(snapshotNode.Start(context.Background())).Should(BeNil())
		defer snapshotNode.Stop()

		for i := 0; i < LogCompactionSize+5; i++ {
			Expect(snapshotNode.Propose(context.Background(), []byte("x"))).Should(BeNil())
			<-done
		}

		snapshot, err := snapshotNode.LastSnapshot()

		Expect(err).Should(BeNil())
		Expect(snapshot.Data).Should(Equal([]byte("state")))
		Expect(snapshot.Metadata.Index).Should(BeNumerically(">=", LogCompactionSize))
	})
})
