// Package flock provides exclusive, non-blocking advisory file locks.
//
// Acquire guards a whole operation on a path:
//
//	lock, err := flock.Acquire(output + ".lock")
//	if err != nil {
//	    // another publisher holds the lock
//	}
//	defer lock.Release()
package flock
