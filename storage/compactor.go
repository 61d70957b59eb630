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
	"time"

	. "github.com/PelionIoT/topology/logging"
)

// Compactor periodically compacts the topology store so the space held by
// superseded topology records is reclaimed
type Compactor struct {
	topologyStore *TopologyStore
	interval      time.Duration
	done          chan bool
	stopped       chan bool
}

func NewCompactor(topologyStore *TopologyStore, interval time.Duration) *Compactor {
	return &Compactor{
		topologyStore: topologyStore,
		interval:      interval,
	}
}

func (compactor *Compactor) Start() {
	compactor.done = make(chan bool)
	compactor.stopped = make(chan bool)

	go func(done <-chan bool, stopped chan<- bool) {
		defer close(stopped)

		for {
			select {
			case <-done:
				return
			case <-time.After(compactor.interval):
				Log.Debugf("Compacting the topology store")

				if err := compactor.topologyStore.Compact(); err != nil {
					Log.Warningf("Unable to compact the topology store: %v", err)
				}
			}
		}
	}(compactor.done, compactor.stopped)
}

// Stop returns once no compaction is running
func (compactor *Compactor) Stop() {
	if compactor.done == nil {
		return
	}

	close(compactor.done)
	<-compactor.stopped
	compactor.done = nil
}
