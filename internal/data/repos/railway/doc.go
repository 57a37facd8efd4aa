// Package railway holds the table-level repos behind the railway aggregate stores.
//
// Repos never open transactions; callers thread one through dbctx.Context. Batched lookups
// split id lists into InChunkSize pieces so a load issues one query per chunk, not per row.
package railway
