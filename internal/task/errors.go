package task

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNoWriter     = errors.New("no blob writer configured")
)
