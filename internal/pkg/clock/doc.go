// Package clock abstracts the current time behind the Clocker interface.
//
// The recorded time is part of every stamp, so code paths that read the
// clock take a Clocker and tests substitute a Fixed instance to pin the
// instant they expect.
package clock
