// Package aggregates defines domain-facing aggregate store contracts.
//
// These contracts avoid persistence/transport implementation details and describe
// the write boundaries where railway aggregate invariants are enforced atomically.
package aggregates
