package cluster

import (
	"encoding/json"
	"time"
)

type ChangeStatus string

const (
	ChangeInProgress ChangeStatus = "IN_PROGRESS"
	ChangeCompleted  ChangeStatus = "COMPLETED"
	ChangeFailed     ChangeStatus = "FAILED"
	ChangeCancelled  ChangeStatus = "CANCELLED"
)

// OperationState tracks the head operation of a plan through its two
// execution phases. Only the head of the queue is ever past OperationQueued.
type OperationState string

const (
	OperationQueued      OperationState = "QUEUED"
	OperationInitialized OperationState = "INITIALIZED"
	OperationApplying    OperationState = "APPLYING"
	OperationFailed      OperationState = "FAILED"
)

// ClusterChangePlan is the ordered list of operations migrating the topology
// from its current state to the requested one.
type ClusterChangePlan struct {
	ID                  int64                `json:"id"`
	Version             int64                `json:"version"`
	Status              ChangeStatus         `json:"status"`
	StartedAt           time.Time            `json:"startedAt"`
	CompletedOperations []CompletedOperation `json:"completedOperations"`
	PendingOperations   OperationList        `json:"pendingOperations"`
	HeadState           OperationState       `json:"headState"`
	Error               string               `json:"error,omitempty"`
}

type CompletedOperation struct {
	Operation   Operation
	CompletedAt time.Time
}

type completedOperationJSON struct {
	Operation   OperationEnvelope `json:"operation"`
	CompletedAt time.Time         `json:"completedAt"`
}

func (completedOperation CompletedOperation) MarshalJSON() ([]byte, error) {
	envelope, err := EncodeOperation(completedOperation.Operation)

	if err != nil {
		return nil, err
	}

	return json.Marshal(completedOperationJSON{Operation: envelope, CompletedAt: completedOperation.CompletedAt})
}

func (completedOperation *CompletedOperation) UnmarshalJSON(data []byte) error {
	var encoded completedOperationJSON

	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}

	op, err := DecodeOperation(encoded.Operation)

	if err != nil {
		return err
	}

	completedOperation.Operation = op
	completedOperation.CompletedAt = encoded.CompletedAt

	return nil
}

// CompletedChange summarizes a plan that has stopped making progress, either
// because it left the topology or because it failed.
type CompletedChange struct {
	ID          int64        `json:"id"`
	Status      ChangeStatus `json:"status"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Error       string       `json:"error,omitempty"`
}

func newClusterChangePlan(id int64, operations []Operation) *ClusterChangePlan {
	return &ClusterChangePlan{
		ID:                  id,
		Version:             1,
		Status:              ChangeInProgress,
		StartedAt:           time.Now(),
		CompletedOperations: []CompletedOperation{},
		PendingOperations:   append(OperationList{}, operations...),
		HeadState:           OperationQueued,
	}
}

func (plan ClusterChangePlan) HasPendingOperations() bool {
	return len(plan.PendingOperations) > 0
}

// NextOperation returns the head of the operation queue
func (plan ClusterChangePlan) NextOperation() (Operation, bool) {
	if len(plan.PendingOperations) == 0 {
		return nil, false
	}

	return plan.PendingOperations[0], true
}

func (plan ClusterChangePlan) withHeadState(state OperationState) *ClusterChangePlan {
	plan.Version++
	plan.HeadState = state

	return &plan
}

// advance moves the head operation to the completed list
func (plan ClusterChangePlan) advance() *ClusterChangePlan {
	completed := make([]CompletedOperation, len(plan.CompletedOperations), len(plan.CompletedOperations)+1)
	copy(completed, plan.CompletedOperations)
	completed = append(completed, CompletedOperation{Operation: plan.PendingOperations[0], CompletedAt: time.Now()})

	plan.Version++
	plan.CompletedOperations = completed
	plan.PendingOperations = append(OperationList{}, plan.PendingOperations[1:]...)
	plan.HeadState = OperationQueued

	return &plan
}

func (plan ClusterChangePlan) fail(reason string) *ClusterChangePlan {
	plan.Version++
	plan.Status = ChangeFailed
	plan.HeadState = OperationFailed
	plan.Error = reason

	return &plan
}

func (plan ClusterChangePlan) retry() *ClusterChangePlan {
	plan.Version++
	plan.Status = ChangeInProgress
	plan.HeadState = OperationQueued
	plan.Error = ""

	return &plan
}

func (plan ClusterChangePlan) completedChange(status ChangeStatus) *CompletedChange {
	return &CompletedChange{
		ID:          plan.ID,
		Status:      status,
		StartedAt:   plan.StartedAt,
		CompletedAt: time.Now(),
		Error:       plan.Error,
	}
}

// Summary describes the plan in its current status
func (plan ClusterChangePlan) Summary() CompletedChange {
	return *plan.completedChange(plan.Status)
}
