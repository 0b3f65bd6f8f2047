// Package configstore persists the two settings the lock reads: whether
// biometric unlock is enabled and the hex digest of the secret.
//
// Two backends are provided. SQLiteStore keeps them as rows of a local
// key/value metadata table; PostgresStore keeps them per profile in a shared
// lock_settings table. Open picks one by driver name and applies the embedded
// goose migrations.
package configstore
