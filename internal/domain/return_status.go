package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ReturnStatus string

const (
	ReturnStatusNone            ReturnStatus = "NONE"
	ReturnStatusRequested       ReturnStatus = "REQUESTED"
	ReturnStatusApproved        ReturnStatus = "APPROVED"
	ReturnStatusRejected        ReturnStatus = "REJECTED"
	ReturnStatusPickupScheduled ReturnStatus = "PICKUP_SCHEDULED"
	ReturnStatusPickedUp        ReturnStatus = "PICKED_UP"
	ReturnStatusRefunded        ReturnStatus = "REFUNDED"
	ReturnStatusCompleted       ReturnStatus = "COMPLETED"
)

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusNone:            {ReturnStatusRequested},
	ReturnStatusRequested:       {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved:        {ReturnStatusPickupScheduled},
	ReturnStatusPickupScheduled: {ReturnStatusPickedUp},
	ReturnStatusPickedUp:        {ReturnStatusRefunded},
}

// position along the pipeline; REJECTED sits beside APPROVED.
var returnRank = map[ReturnStatus]int{
	ReturnStatusNone:            0,
	ReturnStatusRequested:       1,
	ReturnStatusApproved:        2,
	ReturnStatusRejected:        2,
	ReturnStatusPickupScheduled: 3,
	ReturnStatusPickedUp:        4,
	ReturnStatusRefunded:        5,
	ReturnStatusCompleted:       6,
}

func (s ReturnStatus) String() string {
	return string(s)
}

func (s ReturnStatus) IsValid() bool {
	_, ok := returnRank[s]
	return ok
}

func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRefunded || s == ReturnStatusCompleted || s == ReturnStatusRejected
}

// InProgress is true for any status other than NONE.
func (s ReturnStatus) InProgress() bool {
	return s != ReturnStatusNone && s != ""
}

func CanTransitionTo(from, to ReturnStatus) bool {
	for _, next := range returnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClientInitiated reports whether the edge is one a shopper triggers. Every
// other edge is driven by the store and only observed on the next fetch.
func ClientInitiated(from, to ReturnStatus) bool {
	return (from == ReturnStatusNone && to == ReturnStatusRequested) ||
		(from == ReturnStatusApproved && to == ReturnStatusPickupScheduled)
}

// Advance merges a freshly observed status into the known one. Terminal
// statuses never change and the pipeline never moves backwards; a jump over
// several states is accepted since intermediate states may not be observed.
func Advance(known, observed ReturnStatus) ReturnStatus {
	if !observed.IsValid() || known.IsTerminal() || observed == known {
		return known
	}
	if !known.IsValid() {
		return observed
	}
	if CanTransitionTo(known, observed) || returnRank[observed] > returnRank[known] {
		return observed
	}
	return known
}

func ParseReturnStatus(value string) (ReturnStatus, error) {
	if value == "" {
		return ReturnStatusNone, nil
	}
	s := ReturnStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid return status %q", value)
	}
	return s, nil
}

// UnmarshalJSON maps a missing or empty status to NONE.
func (s *ReturnStatus) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ReturnStatusNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseReturnStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
