// Package aggregates implements the railway store contracts of internal/domain/aggregates.
//
// Stores compose the table repos in internal/data/repos/railway. Every write runs in one
// transaction owned by the store, guarded by the root's version column. Reads load roots
// first and then each requested relation with one batched query keyed by the root ids.
package aggregates
