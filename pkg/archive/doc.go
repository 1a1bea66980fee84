// Package archive writes photo bytes to a date-partitioned directory
// tree under a single output root.
//
// Destination paths are derived deterministically from an item's
// creation date (in the feed's origin timezone), its id, and the
// attachment index:
//
//	<root>/yyyy=2022/mm=10/dd=05/1577730467693944832_0.png
//
// Because the id and index also form the ledger's idempotency key,
// path collisions are impossible by construction. Writes go through a
// temporary file and an atomic rename so a crash never leaves partial
// bytes at a final path.
package archive
