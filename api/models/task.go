package models

import (
	"time"
)

type TaskStatus string

const (
	StatusQueued  TaskStatus = "queued"
	StatusClaimed TaskStatus = "claimed"
	StatusActive  TaskStatus = "active"
	StatusDone    TaskStatus = "done"
	StatusFailed  TaskStatus = "failed"
)

type TaskAction string

const (
	ActionDownload TaskAction = "download"
	ActionReupload TaskAction = "reupload"
)

type Task struct {
	ID          int64
	OwnerID     int64
	VideoURL    string
	Action      TaskAction
	Status      TaskStatus
	Error       string
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
}

// transitions is the canonical status machine. Terminal states have no
// outgoing edges; queued appears as a target only for the lease-expiry
// requeue of claimed/active tasks.
var transitions = map[TaskStatus][]TaskStatus{
	StatusQueued:  {StatusClaimed, StatusFailed},
	StatusClaimed: {StatusActive, StatusQueued, StatusFailed},
	StatusActive:  {StatusDone, StatusQueued, StatusFailed},
	StatusDone:    {},
	StatusFailed:  {},
}

// IsTerminal reports whether no worker-driven transition can leave s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is a valid edge of
// the status machine. A same-status update is not a transition; callers
// treat it as an idempotent no-op before consulting this.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusQueued, StatusClaimed, StatusActive, StatusDone, StatusFailed:
		return TaskStatus(s), true
	}
	return "", false
}

func ParseTaskAction(s string) (TaskAction, bool) {
	switch TaskAction(s) {
	case ActionDownload, ActionReupload:
		return TaskAction(s), true
	}
	return "", false
}
