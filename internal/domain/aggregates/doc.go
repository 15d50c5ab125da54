// Package aggregates defines the write boundaries of the task tracker.
//
// Every operation takes the acting principal explicitly and runs its access
// check and its mutation inside one transaction owned by the implementation.
package aggregates
