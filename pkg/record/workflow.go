package record

import (
	"fmt"
	"slices"
)

// Task board columns, in board order.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Employee states.
const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

var workflows = map[Kind][]Status{
	KindTasks:     {StatusToDo, StatusInProgress, StatusDone},
	KindEmployees: {StatusActive, StatusInactive},
}

// Workflow returns the ordered status set for a kind.
// The returned slice is a copy.
func Workflow(kind Kind) []Status {
	return slices.Clone(workflows[kind])
}

// ValidateStatus checks that status belongs to the kind's workflow.
func ValidateStatus(kind Kind, status Status) error {
	if StatusIndex(kind, status) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %q is not a %s status (valid: %v)", ErrInvalidStatus, status, kind, workflows[kind])
}

// StatusIndex returns the position of status in the kind's workflow, or -1.
func StatusIndex(kind Kind, status Status) int {
	return slices.Index(workflows[kind], status)
}
