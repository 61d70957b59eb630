package routes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"
	"github.com/PelionIoT/topology/requests"
)

type TopologyFacade interface {
	Topology() cluster.ClusterConfiguration
	ApplyRequest(ctx context.Context, request requests.ClusterChangeRequest, dryRun bool) (coordinator.ChangeStatus, error)
	CancelChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error)
	RetryChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error)
	AwaitChange(ctx context.Context, changeID int64) (cluster.CompletedChange, error)
	History() ([]cluster.CompletedChange, error)
	Subscribe(ctx context.Context) (*coordinator.Watcher, cluster.ClusterConfiguration, error)
	Unsubscribe(watcher *coordinator.Watcher)
}
