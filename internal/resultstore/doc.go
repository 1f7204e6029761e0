// Package resultstore persists completed session results for polling
// clients. Entries are keyed by session id, replaced on rewrite, and evicted
// a fixed retention after the last write regardless of reads.
package resultstore
