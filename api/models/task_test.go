package models

import (
	"testing"
)

func TestCanTransitionTo_SuccessPath(t *testing.T) {
	path := []TaskStatus{StatusQueued, StatusClaimed, StatusActive, StatusDone}
	for i := 0; i < len(path)-1; i++ {
		if !path[i].CanTransitionTo(path[i+1]) {
			t.Errorf("Expected %s -> %s to be valid", path[i], path[i+1])
		}
	}
}

func TestCanTransitionTo_NoSkipToDone(t *testing.T) {
	if StatusQueued.CanTransitionTo(StatusDone) {
		t.Error("queued -> done must not be allowed")
	}
	if StatusClaimed.CanTransitionTo(StatusDone) {
		t.Error("claimed -> done must not be allowed")
	}
}

func TestCanTransitionTo_FailedFromNonTerminal(t *testing.T) {
	for _, from := range []TaskStatus{StatusQueued, StatusClaimed, StatusActive} {
		if !from.CanTransitionTo(StatusFailed) {
			t.Errorf("Expected %s -> failed to be valid", from)
		}
	}
}

func TestCanTransitionTo_Requeue(t *testing.T) {
	if !StatusClaimed.CanTransitionTo(StatusQueued) {
		t.Error("claimed -> queued (lease requeue) must be allowed")
	}
	if !StatusActive.CanTransitionTo(StatusQueued) {
		t.Error("active -> queued (lease requeue) must be allowed")
	}
	if StatusQueued.CanTransitionTo(StatusQueued) {
		t.Error("queued -> queued is not a transition")
	}
}

func TestCanTransitionTo_TerminalStatesAreAbsorbing(t *testing.T) {
	targets := []TaskStatus{StatusQueued, StatusClaimed, StatusActive, StatusDone, StatusFailed}
	for _, from := range []TaskStatus{StatusDone, StatusFailed} {
		if !from.IsTerminal() {
			t.Errorf("Expected %s to be terminal", from)
		}
		for _, to := range targets {
			if from.CanTransitionTo(to) {
				t.Errorf("Terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestParseTaskStatus(t *testing.T) {
	for _, s := range []string{"queued", "claimed", "active", "done", "failed"} {
		if _, ok := ParseTaskStatus(s); !ok {
			t.Errorf("Expected %q to parse", s)
		}
	}
	for _, s := range []string{"", "downloading", "processing", "DONE"} {
		if _, ok := ParseTaskStatus(s); ok {
			t.Errorf("Expected %q to be rejected", s)
		}
	}
}

func TestParseTaskAction(t *testing.T) {
	if _, ok := ParseTaskAction("download"); !ok {
		t.Error("Expected download to parse")
	}
	if _, ok := ParseTaskAction("reupload"); !ok {
		t.Error("Expected reupload to parse")
	}
	if _, ok := ParseTaskAction("upload"); ok {
		t.Error("Expected upload to be rejected")
	}
}

func TestParseApprovalState(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		if _, ok := ParseApprovalState(s); !ok {
			t.Errorf("Expected %q to parse", s)
		}
	}
	if _, ok := ParseApprovalState("banned"); ok {
		t.Error("Expected banned to be rejected")
	}
}
