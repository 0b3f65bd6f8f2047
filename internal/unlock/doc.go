// Package unlock arbitrates when the lock surface turns from locked to
// unlocked.
//
// A Controller accepts two racing verification methods: a secret compared
// against the stored digest, and a platform biometric assertion. It keeps at
// most one verification attempt alive, lets a submitted secret preempt a
// pending biometric attempt without reporting an error, and calls the unlock
// handler exactly once, SettleDelay after reaching StateUnlocked, unless the
// controller was disposed first.
//
// # Concurrency
//
// Every state mutation and every observer notification runs on the
// controller's own event loop goroutine, in order. The store read and the
// platform call run in worker goroutines that post their result back to the
// loop; results of attempts that were cancelled or replaced in the meantime
// are dropped. Public methods only enqueue work and never block on it.
//
// Dispose must be called when the surface goes away. It cancels the live
// attempt, stops the settle timer and stops the loop.
package unlock
