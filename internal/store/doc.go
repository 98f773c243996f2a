// Package store manages sprout persistence backed by SQLite: user accounts,
// login tokens, plant and photo records, profiles, and the import session
// lifecycle used by the identification workflow.
//
// Import sessions move monotonically forward through their statuses. Every
// transition is guarded by a conditional UPDATE on the expected status so
// concurrent writers cannot move a session backward or commit the same
// transition twice.
package store
