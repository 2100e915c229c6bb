// Package testerr helps simulating failing dependencies in tests.
package testerr

import (
	"errors"
	"fmt"
)

// Err is the error returned by failing dependencies.
var Err = errors.New("test error")

// Calltracker counts the calls made to a dependency and decides which of
// them fail. The zero value never fails.
type Calltracker struct {
	CallIndex         int
	ShouldFail        bool
	Err               error
	FailAllAfterIndex bool
	FailAtIndex       int
}

// NewFailingDeps returns two trackers for each of the expected calls: one
// that fails only that call, and one that fails that call and every call after it.
func NewFailingDeps(err error, expectCalls int) []Calltracker {
	trackers := make([]Calltracker, 0, expectCalls*2)
	for i := 0; i < expectCalls; i++ {
		for _, failAll := range []bool{false, true} {
			trackers = append(trackers, Calltracker{
				CallIndex:         -1,
				ShouldFail:        true,
				Err:               err,
				FailAllAfterIndex: failAll,
				FailAtIndex:       i,
			})
		}
	}

	return trackers
}

// String describes which calls fail, it's meant for test names.
func (ct *Calltracker) String() string {
	switch {
	case !ct.ShouldFail:
		return "never fails"
	case ct.FailAllAfterIndex:
		return fmt.Sprintf("fails from call %d", ct.FailAtIndex)
	default:
		return fmt.Sprintf("fails call %d", ct.FailAtIndex)
	}
}

// next registers a call and reports whether it should fail.
func (ct *Calltracker) next() bool {
	if !ct.ShouldFail {
		return false
	}

	ct.CallIndex++
	if ct.CallIndex == ct.FailAtIndex {
		return true
	}

	return ct.FailAllAfterIndex && ct.CallIndex > ct.FailAtIndex
}

// MaybeFailErrFunc returns the tracker's error if the call should fail, otherwise the result of f.
func MaybeFailErrFunc(ct *Calltracker, f func() error) error {
	if ct.next() {
		return ct.Err
	}

	return f()
}

// MaybeFail returns the tracker's error if the call should fail, otherwise the results of f.
func MaybeFail[T any](ct *Calltracker, f func() (T, error)) (T, error) {
	if ct.next() {
		var zero T
		return zero, ct.Err
	}

	return f()
}
