package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"
	"github.com/PelionIoT/topology/requests"

	"github.com/google/go-cmp/cmp"
)

var EStopped = errors.New("The coordinator is not running")

const DefaultPersistTimeout = 10 * time.Second

// ChangeStatus is the answer to an accepted change request. ChangeID is zero
// when no plan was attached, either because the request was a dry run or
// because the topology already matches it.
type ChangeStatus struct {
	ChangeID   int64                        `json:"changeId"`
	DryRun     bool                         `json:"dryRun,omitempty"`
	Operations cluster.OperationList        `json:"plannedChanges"`
	Current    cluster.ClusterConfiguration `json:"currentConfiguration"`
	Expected   cluster.ClusterConfiguration `json:"expectedConfiguration"`
}

type CoordinatorConfig struct {
	Persister Persister
	Executors changes.Executors
	// Initial is the topology used when the persister holds none
	Initial        cluster.ClusterConfiguration
	PersistTimeout time.Duration
}

// Coordinator owns the authoritative topology. Every change to it happens on
// the coordinator goroutine, one event at a time. Readers load the current
// value without synchronizing with that goroutine.
type Coordinator struct {
	config   CoordinatorConfig
	topology atomic.Pointer[cluster.ClusterConfiguration]
	started  atomic.Bool
	events   chan func()
	stop     chan int
	done     chan int
	ctx      context.Context
	cancel   context.CancelFunc
	// epoch identifies the executor call the coordinator is waiting on.
	// Results carrying another epoch are stale.
	epoch    uint64
	waiters  map[int64][]chan cluster.CompletedChange
	watchers map[string]*Watcher
}

func NewCoordinator(config CoordinatorConfig) *Coordinator {
	if config.PersistTimeout == 0 {
		config.PersistTimeout = DefaultPersistTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		config:   config,
		events:   make(chan func()),
		stop:     make(chan int),
		done:     make(chan int),
		ctx:      ctx,
		cancel:   cancel,
		waiters:  make(map[int64][]chan cluster.CompletedChange),
		watchers: make(map[string]*Watcher),
	}
}

// Start loads the persisted topology and resumes its pending plan, if any
func (coordinator *Coordinator) Start() error {
	configuration, ok, err := coordinator.config.Persister.Load()

	if err != nil {
		Log.Criticalf("Unable to load the cluster topology: %v", err)

		return err
	}

	if !ok {
		Log.Infof("No stored topology found. Starting from the initial topology with %d members", len(coordinator.config.Initial.Members))

		configuration = coordinator.config.Initial

		if err := coordinator.persist(configuration); err != nil {
			return err
		}
	}

	coordinator.topology.Store(&configuration)
	coordinator.updateGauges(configuration)
	coordinator.started.Store(true)

	go coordinator.run()

	return coordinator.do(context.Background(), func() {
		if plan := configuration.PendingChange; plan != nil && plan.Status == cluster.ChangeInProgress {
			Log.Infof("Resuming change %d at operation %d of %d", plan.ID, len(plan.CompletedOperations)+1, len(plan.CompletedOperations)+len(plan.PendingOperations))
		}

		coordinator.drive()
	})
}

// Stop halts the coordinator. Executor calls in flight are cancelled and
// their plan is resumed on the next start.
func (coordinator *Coordinator) Stop() {
	if !coordinator.started.Load() {
		return
	}

	select {
	case coordinator.stop <- 1:
		<-coordinator.done
	case <-coordinator.done:
	}
}

func (coordinator *Coordinator) run() {
	defer func() {
		coordinator.cancel()

		for _, watcher := range coordinator.watchers {
			watcher.close()
		}

		close(coordinator.done)
	}()

	for {
		select {
		case event := <-coordinator.events:
			event()
		case <-coordinator.stop:
			return
		}
	}
}

// do runs f on the coordinator goroutine and waits for it to finish
func (coordinator *Coordinator) do(ctx context.Context, f func()) error {
	finished := make(chan int)

	select {
	case coordinator.events <- func() { f(); close(finished) }:
	case <-coordinator.done:
		return EStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished

	return nil
}

// post queues f for the coordinator goroutine without waiting for it
func (coordinator *Coordinator) post(f func()) {
	select {
	case coordinator.events <- f:
	case <-coordinator.done:
	}
}

// Topology returns the current topology. It never waits for a pending change.
func (coordinator *Coordinator) Topology() cluster.ClusterConfiguration {
	return *coordinator.topology.Load()
}

// ApplyRequest plans the request against the current topology. Unless dryRun
// is set a non-empty plan is attached and driven in the background.
func (coordinator *Coordinator) ApplyRequest(ctx context.Context, request requests.ClusterChangeRequest, dryRun bool) (ChangeStatus, error) {
	var status ChangeStatus
	var result error

	if err := coordinator.do(ctx, func() { status, result = coordinator.applyRequest(request, dryRun) }); err != nil {
		return ChangeStatus{}, err
	}

	return status, result
}

func (coordinator *Coordinator) applyRequest(request requests.ClusterChangeRequest, dryRun bool) (ChangeStatus, error) {
	configuration := coordinator.Topology()

	if configuration.HasPendingChanges() {
		return ChangeStatus{}, cluster.EChangeInProgress
	}

	operations, err := request.Operations(configuration)

	if err != nil {
		return ChangeStatus{}, err
	}

	expected, err := changes.Simulate(configuration, operations)

	if err != nil {
		Log.Errorf("%T produced a plan that cannot be applied to the current topology: %v", request, err)

		return ChangeStatus{}, &requests.InvalidRequestError{Reason: fmt.Sprintf("the planned operations cannot be applied: %v", err)}
	}

	status := ChangeStatus{
		DryRun:     dryRun,
		Operations: operations,
		Current:    configuration,
		Expected:   expected,
	}

	if dryRun || len(operations) == 0 {
		return status, nil
	}

	next, err := configuration.StartConfigurationChange(operations)

	if err != nil {
		return ChangeStatus{}, err
	}

	if err := coordinator.commit(next); err != nil {
		return ChangeStatus{}, err
	}

	status.ChangeID = next.PendingChange.ID
	changePlans.WithLabelValues("started").Inc()

	Log.Infof("Started change %d with %d operations for %T", status.ChangeID, len(operations), request)
	Log.Debugf("Topology expected after change %d:\n%s", status.ChangeID, cmp.Diff(configuration, expected))

	coordinator.drive()

	return status, nil
}

// CancelChange detaches the pending plan. An executor call already running
// is left to finish and its result is ignored.
func (coordinator *Coordinator) CancelChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error) {
	var configuration cluster.ClusterConfiguration
	var result error

	err := coordinator.do(ctx, func() {
		next, err := coordinator.Topology().CancelPendingChange(changeID)

		if err != nil {
			result = err

			return
		}

		if err := coordinator.commit(next); err != nil {
			result = err

			return
		}

		coordinator.epoch++
		changePlans.WithLabelValues("cancelled").Inc()

		Log.Infof("Change %d was cancelled", changeID)

		coordinator.notifyWaiters(*next.LastChange)
		configuration = next
	})

	if err != nil {
		return cluster.ClusterConfiguration{}, err
	}

	return configuration, result
}

// RetryChange resumes a failed plan from the operation that failed
func (coordinator *Coordinator) RetryChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error) {
	var configuration cluster.ClusterConfiguration
	var result error

	err := coordinator.do(ctx, func() {
		next, err := coordinator.Topology().RetryConfigurationChange(changeID)

		if err != nil {
			result = err

			return
		}

		if err := coordinator.commit(next); err != nil {
			result = err

			return
		}

		Log.Infof("Retrying change %d", changeID)

		coordinator.drive()
		configuration = coordinator.Topology()
	})

	if err != nil {
		return cluster.ClusterConfiguration{}, err
	}

	return configuration, result
}

// AwaitChange blocks until the change completes, fails or is cancelled and
// returns its outcome. A change that already finished returns immediately.
func (coordinator *Coordinator) AwaitChange(ctx context.Context, changeID int64) (cluster.CompletedChange, error) {
	var outcome *cluster.CompletedChange
	var waiter chan cluster.CompletedChange
	var result error

	err := coordinator.do(ctx, func() {
		configuration := coordinator.Topology()

		if plan := configuration.PendingChange; plan != nil && plan.ID == changeID {
			if plan.Status == cluster.ChangeFailed {
				summary := plan.Summary()
				outcome = &summary

				return
			}

			waiter = make(chan cluster.CompletedChange, 1)
			coordinator.waiters[changeID] = append(coordinator.waiters[changeID], waiter)

			return
		}

		if last := configuration.LastChange; last != nil && last.ID == changeID {
			outcome = last

			return
		}

		history, err := coordinator.config.Persister.History()

		if err != nil {
			result = err

			return
		}

		for i := range history {
			if history[i].ID == changeID {
				outcome = &history[i]

				return
			}
		}

		result = cluster.ENoSuchChange
	})

	if err != nil {
		return cluster.CompletedChange{}, err
	}

	if result != nil {
		return cluster.CompletedChange{}, result
	}

	if outcome != nil {
		return *outcome, nil
	}

	select {
	case completed := <-waiter:
		return completed, nil
	case <-ctx.Done():
		coordinator.post(func() { coordinator.removeWaiter(changeID, waiter) })

		return cluster.CompletedChange{}, ctx.Err()
	case <-coordinator.done:
		return cluster.CompletedChange{}, EStopped
	}
}

// History lists the changes that have left the topology
func (coordinator *Coordinator) History() ([]cluster.CompletedChange, error) {
	return coordinator.config.Persister.History()
}

func (coordinator *Coordinator) removeWaiter(changeID int64, waiter chan cluster.CompletedChange) {
	waiters := coordinator.waiters[changeID]

	for i, w := range waiters {
		if w == waiter {
			waiters = append(waiters[:i], waiters[i+1:]...)

			break
		}
	}

	if len(waiters) == 0 {
		delete(coordinator.waiters, changeID)
	} else {
		coordinator.waiters[changeID] = waiters
	}
}

func (coordinator *Coordinator) notifyWaiters(outcome cluster.CompletedChange) {
	for _, waiter := range coordinator.waiters[outcome.ID] {
		waiter <- outcome
	}

	delete(coordinator.waiters, outcome.ID)
}

// drive starts the head operation of the pending plan. The init phase runs
// here. The apply phase runs on its own goroutine and reports back through
// operationApplied.
func (coordinator *Coordinator) drive() {
	configuration := coordinator.Topology()
	plan := configuration.PendingChange

	if plan == nil || plan.Status != cluster.ChangeInProgress {
		return
	}

	op, _ := plan.NextOperation()
	coordinator.epoch++
	epoch := coordinator.epoch

	applier, err := changes.NewApplier(op, coordinator.config.Executors)

	if err != nil {
		Log.Criticalf("Change %d contains an operation that cannot be executed: %v", plan.ID, err)

		coordinator.fail(op, err)

		return
	}

	initTransform, err := applier.Init(configuration)

	if err != nil {
		Log.Warningf("Change %d: unable to initialize %v: %v", plan.ID, op, err)

		coordinator.fail(op, err)

		return
	}

	next, err := initTransform(configuration).UpdateOperationState(cluster.OperationInitialized)

	if err == nil {
		err = coordinator.commit(next)
	}

	if err == nil {
		next, _ = next.UpdateOperationState(cluster.OperationApplying)
		err = coordinator.commit(next)
	}

	if err != nil {
		coordinator.fail(op, fmt.Errorf("unable to record the progress of %v: %w", op, err))

		return
	}

	Log.Debugf("Change %d: applying %v", plan.ID, op)

	go func() {
		start := time.Now()
		applyTransform, err := applier.Apply(coordinator.ctx)
		operationApplyDuration.WithLabelValues(string(op.Type())).Observe(time.Since(start).Seconds())

		coordinator.post(func() { coordinator.operationApplied(plan.ID, epoch, op, applyTransform, err) })
	}()
}

func (coordinator *Coordinator) operationApplied(changeID int64, epoch uint64, op cluster.Operation, applyTransform changes.Transform, err error) {
	configuration := coordinator.Topology()

	if epoch != coordinator.epoch || configuration.PendingChange == nil || configuration.PendingChange.ID != changeID {
		Log.Infof("Discarding the result of %v from change %d which is no longer being executed", op, changeID)

		return
	}

	if err != nil {
		operations.WithLabelValues(string(op.Type()), "failed").Inc()

		coordinator.fail(op, err)

		return
	}

	operations.WithLabelValues(string(op.Type()), "succeeded").Inc()

	next, err := configuration.AdvanceConfigurationChange(applyTransform)

	if err == nil {
		err = coordinator.commit(next)
	}

	if err != nil {
		coordinator.fail(op, fmt.Errorf("unable to record the completion of %v: %w", op, err))

		return
	}

	if !next.HasPendingChanges() {
		changePlans.WithLabelValues("completed").Inc()

		Log.Infof("Change %d completed", changeID)

		coordinator.notifyWaiters(*next.LastChange)

		return
	}

	coordinator.drive()
}

// fail halts the pending plan at op. The failure is published even when it
// cannot be persisted so that the plan can be retried.
func (coordinator *Coordinator) fail(op cluster.Operation, cause error) {
	next, err := coordinator.Topology().FailConfigurationChange(cause.Error())

	if err != nil {
		return
	}

	changePlans.WithLabelValues("failed").Inc()

	Log.Errorf("Change %d failed at %v: %v", next.PendingChange.ID, op, cause)

	if err := coordinator.commit(next); err != nil {
		coordinator.publish(next)
	}

	coordinator.notifyWaiters(next.PendingChange.Summary())
}

func (coordinator *Coordinator) persist(configuration cluster.ClusterConfiguration) error {
	ctx, cancel := context.WithTimeout(coordinator.ctx, coordinator.config.PersistTimeout)
	defer cancel()

	if err := coordinator.config.Persister.Persist(ctx, configuration); err != nil {
		Log.Criticalf("Unable to persist topology version %d: %v", configuration.Version, err)

		return err
	}

	return nil
}

// commit makes the configuration durable and then publishes it
func (coordinator *Coordinator) commit(configuration cluster.ClusterConfiguration) error {
	if err := coordinator.persist(configuration); err != nil {
		return err
	}

	coordinator.publish(configuration)

	return nil
}

func (coordinator *Coordinator) publish(configuration cluster.ClusterConfiguration) {
	previous := coordinator.Topology()
	coordinator.topology.Store(&configuration)
	coordinator.updateGauges(configuration)

	deltas := cluster.Diff(previous, configuration)

	if len(deltas) == 0 {
		return
	}

	for id, watcher := range coordinator.watchers {
		if !watcher.send(deltas) {
			Log.Warningf("Topology watcher %s is not keeping up and will be disconnected", id)

			watcher.close()
			delete(coordinator.watchers, id)
		}
	}
}

func (coordinator *Coordinator) updateGauges(configuration cluster.ClusterConfiguration) {
	if configuration.PendingChange == nil {
		pendingOperations.Set(0)

		return
	}

	pendingOperations.Set(float64(len(configuration.PendingChange.PendingOperations)))
}
