package routes

import (
	"net/http"
	"time"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	WatchWriteWait  = 10 * time.Second
	WatchPingPeriod = 30 * time.Second
)

// TopologyEvent is one message of the topology watch stream. The first
// message carries the full topology and every later one the deltas of a
// single change.
type TopologyEvent struct {
	Topology *cluster.ClusterConfiguration `json:"topology,omitempty"`
	Deltas   []cluster.TopologyDelta       `json:"deltas,omitempty"`
}

type TopologyEndpoint struct {
	TopologyFacade TopologyFacade
	Upgrader       websocket.Upgrader
}

func (topologyEndpoint *TopologyEndpoint) Attach(router *mux.Router) {
	router.HandleFunc("/topology", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, topologyEndpoint.TopologyFacade.Topology())
	}).Methods("GET")

	router.HandleFunc("/topology/watch", func(w http.ResponseWriter, r *http.Request) {
		watcher, configuration, err := topologyEndpoint.TopologyFacade.Subscribe(r.Context())

		if err != nil {
			Log.Warningf("GET /topology/watch: %v", err)

			writeError(w, err)

			return
		}

		defer topologyEndpoint.TopologyFacade.Unsubscribe(watcher)

		conn, err := topologyEndpoint.Upgrader.Upgrade(w, r, nil)

		if err != nil {
			Log.Warningf("GET /topology/watch: Unable to upgrade connection: %v", err)

			return
		}

		defer conn.Close()

		closed := make(chan int)

		// Control frames are only processed while reading
		go func() {
			defer close(closed)

			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pingTicker := time.NewTicker(WatchPingPeriod)
		defer pingTicker.Stop()

		conn.SetWriteDeadline(time.Now().Add(WatchWriteWait))

		if err := conn.WriteJSON(TopologyEvent{Topology: &configuration}); err != nil {
			Log.Warningf("GET /topology/watch: Unable to write to watcher %s: %v", watcher.ID, err)

			return
		}

		for {
			select {
			case deltas, ok := <-watcher.Deltas():
				conn.SetWriteDeadline(time.Now().Add(WatchWriteWait))

				if !ok {
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "watcher closed"))

					return
				}

				if err := conn.WriteJSON(TopologyEvent{Deltas: deltas}); err != nil {
					Log.Warningf("GET /topology/watch: Unable to write to watcher %s: %v", watcher.ID, err)

					return
				}
			case <-pingTicker.C:
				conn.SetWriteDeadline(time.Now().Add(WatchWriteWait))

				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}).Methods("GET")
}
