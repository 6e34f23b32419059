package executor

import "fmt"

// ErrorKind classifies why an operator failed.
type ErrorKind string

const (
	// KindCallable is a callable returning an error, including missing
	// shared keys and unserializable outputs.
	KindCallable ErrorKind = "callable"
	// KindTimeout is a dispatch exceeding the operator's timeout.
	KindTimeout ErrorKind = "timeout"
	// KindCrash is a worker process that died without reporting a result.
	KindCrash ErrorKind = "crash"
)

// OperatorError wraps any failure of one dispatched operator. It is captured
// in the run report and is fatal only to that operator's dependent subtree,
// never to the run as a whole.
type OperatorError struct {
	OperatorID string
	Kind       ErrorKind
	Repeat     int // 1-based repeat index the failure happened on
	Err        error
}

func (e *OperatorError) Error() string {
	if e.Repeat > 1 {
		return fmt.Sprintf("operator %q failed (%s, repeat %d): %v", e.OperatorID, e.Kind, e.Repeat, e.Err)
	}
	return fmt.Sprintf("operator %q failed (%s): %v", e.OperatorID, e.Kind, e.Err)
}

func (e *OperatorError) Unwrap() error { return e.Err }

// opErr builds an OperatorError unless err already is one.
func opErr(id string, kind ErrorKind, repeat int, err error) *OperatorError {
	if oe, ok := err.(*OperatorError); ok {
		return oe
	}
	return &OperatorError{OperatorID: id, Kind: kind, Repeat: repeat, Err: err}
}
