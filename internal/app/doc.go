// Package app assembles the two processes from their configuration: the lock
// (LockApp) and the biometric bridge (BridgeApp).
package app
