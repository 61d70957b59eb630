package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/routes"

	"github.com/gorilla/websocket"
)

var EWatchClosed = errors.New("The topology watch was closed by the server")

// TopologyWatch follows the topology of the cluster through the watch stream
// of one server
type TopologyWatch struct {
	conn     *websocket.Conn
	topology cluster.ClusterConfiguration
}

// Watch opens a topology watch. The returned watch already holds the
// topology the server reported when the stream was opened.
func (client *APIClient) Watch(ctx context.Context) (*TopologyWatch, error) {
	server := client.nextServer()

	if server == "" {
		return nil, ENoServers
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("ws://%s/topology/watch", server), nil)

	if err != nil {
		return nil, err
	}

	var event routes.TopologyEvent

	if err := conn.ReadJSON(&event); err != nil {
		conn.Close()

		return nil, err
	}

	if event.Topology == nil {
		conn.Close()

		return nil, errors.New("The first watch event did not contain the topology")
	}

	return &TopologyWatch{conn: conn, topology: *event.Topology}, nil
}

func (watch *TopologyWatch) Topology() cluster.ClusterConfiguration {
	return watch.topology
}

// Next blocks until the deltas of the next topology change arrive. It returns
// EWatchClosed once the server has closed the stream.
func (watch *TopologyWatch) Next() ([]cluster.TopologyDelta, error) {
	for {
		var event routes.TopologyEvent

		if err := watch.conn.ReadJSON(&event); err != nil {
			if websocket.IsCloseError(err, websocket.CloseTryAgainLater, websocket.CloseNormalClosure) {
				return nil, EWatchClosed
			}

			return nil, err
		}

		if event.Topology != nil {
			watch.topology = *event.Topology
		}

		if len(event.Deltas) > 0 {
			return event.Deltas, nil
		}
	}
}

func (watch *TopologyWatch) Close() error {
	watch.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return watch.conn.Close()
}
