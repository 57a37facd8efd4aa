// Package edges resolves weak references between railway aggregates.
//
// Weak ids (station connected tracks, signal protected tracks, platform tracks, stop-time stations)
// may point at roots that were since deleted. Resolution treats those as absent rather than failing,
// and optionally reads through a Cache that store writes invalidate.
package edges
