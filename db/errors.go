package db

import (
	"errors"
	"fmt"
)

// ErrNoRowsAffected reports an update that matched no persisted row,
// typically a row mutation whose identifying values went stale.
var ErrNoRowsAffected = errors.New("no rows affected")

// EngineError wraps a failure raised by the underlying engine with the
// table and operation that triggered it. The cause is preserved for
// errors.Is and errors.As; nothing is retried or recovered locally.
type EngineError struct {
	Table string
	Op    string
	Err   error
}

func (e *EngineError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
