// Package engine owns the simulation's only long-lived control flow.
//
// The scheduler runs one cycle at a time: rebuild the userbase from the
// ledger, pick an identity (reuse or mint), drive the content pipeline,
// and commit the resulting records in a fixed order. Cycles never
// overlap, since every external call is a synchronous wait, so nothing
// in this package takes a lock.
//
// Failure discipline follows the ledger-first design: pipeline failures
// are absorbed by fallback values and logged, a failed append aborts the
// rest of that cycle's writes, and the loop itself stops only on context
// cancellation. Nothing is ever retried.
package engine
