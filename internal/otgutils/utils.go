// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package otgutils provides the polling primitive and the metrics
// comparators used by the snappi traffic tests.
package otgutils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	log "github.com/golang/glog"
)

const (
	// DefaultInterval is the time slept between two evaluations of a condition.
	DefaultInterval = 500 * time.Millisecond
	// DefaultTimeout is the time after which a pending condition is given up.
	DefaultTimeout = 30 * time.Second
)

// Overridden in tests.
var (
	timeNow   = time.Now
	timeSleep = time.Sleep
)

// Outcome is the result of one evaluation of a wait condition.
type Outcome int

const (
	// Pending means the condition is not met yet and should be polled again.
	Pending Outcome = iota
	// Done means the condition is met.
	Done
	// Abort means the condition can never be met and polling must stop.
	Abort
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Condition is evaluated on every poll. It must fetch fresh state on each
// call and keep nothing between calls.
type Condition func() (Outcome, error)

// BoolCondition adapts a two-state predicate: true is Done, false is
// Pending and an error is Abort.
func BoolCondition(fn func() (bool, error)) Condition {
	return func() (Outcome, error) {
		ok, err := fn()
		switch {
		case err != nil:
			return Abort, err
		case ok:
			return Done, nil
		}
		return Pending, nil
	}
}

// This struct is used at tests level whenever WaitFor func is called
type WaitForOpts struct {
	Condition string
	Interval  time.Duration
	Timeout   time.Duration
}

var (
	// ErrAborted is matched by errors returned when a condition aborted the wait.
	ErrAborted = errors.New("wait aborted")
	// ErrTimedOut is matched by errors returned when a condition stayed pending
	// past the timeout.
	ErrTimedOut = errors.New("wait timed out")
)

// WaitError is returned by WaitFor when the condition is not met.
type WaitError struct {
	// Kind is either ErrAborted or ErrTimedOut.
	Kind      error
	Condition string
	Elapsed   time.Duration
	// Err is the error returned by the condition, if any.
	Err error
}

func (e *WaitError) Error() string {
	if e.Kind == ErrAborted {
		if e.Err != nil {
			return fmt.Sprintf("wait aborted for %s: %v", e.Condition, e.Err)
		}
		return fmt.Sprintf("wait aborted for %s", e.Condition)
	}
	return fmt.Sprintf("timeout occurred while waiting for %s (%v elapsed)", e.Condition, e.Elapsed)
}

// Is reports whether target is the kind of this error.
func (e *WaitError) Is(target error) bool {
	return target == e.Kind
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// Result names the outcome of a wait ended with err: "done", "aborted",
// "timed_out", or "error" for errors not returned by WaitFor.
func Result(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ErrAborted):
		return "aborted"
	case errors.Is(err, ErrTimedOut):
		return "timed_out"
	}
	return "error"
}

// Timer logs the time spent since start.
func Timer(start time.Time, name string) {
	elapsed := time.Since(start)
	log.Infof("%s took %d ms", name, elapsed.Milliseconds())
}

// secondsElapsed returns the time since start rounded to whole seconds.
func secondsElapsed(start time.Time) time.Duration {
	return timeNow().Sub(start).Round(time.Second)
}

// WaitFor polls fn until it returns Done, Abort or until the timeout elapses.
//
// A nil opts uses DefaultInterval and DefaultTimeout. A zero Interval uses
// DefaultInterval; Timeout is taken literally, so a zero Timeout still
// evaluates fn at least once. The timeout is checked after each
// evaluation against the elapsed time rounded to whole seconds.
func WaitFor(fn Condition, opts *WaitForOpts) error {
	o := WaitForOpts{Condition: "condition to be true", Timeout: DefaultTimeout}
	if opts != nil {
		o = *opts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	defer Timer(time.Now(), fmt.Sprintf("Waiting for %s", o.Condition))

	start := timeNow()
	log.Infof("Waiting for %s ...", o.Condition)
	for {
		outcome, err := fn()
		if err != nil {
			outcome = Abort
		}
		switch outcome {
		case Done:
			log.Infof("Done waiting for %s", o.Condition)
			return nil
		case Abort:
			return &WaitError{Kind: ErrAborted, Condition: o.Condition, Elapsed: secondsElapsed(start), Err: err}
		}
		if elapsed := secondsElapsed(start); elapsed > o.Timeout {
			return &WaitError{Kind: ErrTimedOut, Condition: o.Condition, Elapsed: elapsed}
		}
		log.V(1).Infof("%s still pending, retrying in %v", o.Condition, o.Interval)
		timeSleep(o.Interval)
	}
}

// WaitForOk is like WaitFor but fails the test when the condition is not met.
func WaitForOk(t testing.TB, fn Condition, opts *WaitForOpts) {
	t.Helper()
	if err := WaitFor(fn, opts); err != nil {
		t.Fatal(err)
	}
}

// ClearScreen clears the terminal the stats tables are printed to.
func ClearScreen() {
	switch runtime.GOOS {
	case "darwin", "linux":
		cmd := exec.Command("clear")
		cmd.Stdout = os.Stdout
		cmd.Run()
	case "windows":
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = os.Stdout
		cmd.Run()
	}
}
