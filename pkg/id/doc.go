// Package id provides 128-bit, lexicographically sortable receipt
// identifiers for committed ledger transactions.
//
// # Format
//
// 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence]. Byte-wise
// comparison preserves commit order, including within one millisecond.
//
// # Monotonicity
//
// The Generator pins to the last seen millisecond when the wall clock
// regresses and waits for the next millisecond if the sequence would overflow.
package id
