package models

import (
	"time"
)

type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

type User struct {
	ID            int64
	ExternalID    string
	ApprovalState ApprovalState
	CreatedAt     time.Time
}

func ParseApprovalState(s string) (ApprovalState, bool) {
	switch ApprovalState(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalState(s), true
	}
	return "", false
}
