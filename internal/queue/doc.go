// Package queue defines the fixed-layout record stored in a queue account.
//
// Layout (little-endian, no padding):
//
//	creator[32] | u32 n | n*[32] allow | u32 m | m data | u64 need_data_size | i64 created_at | i64 last_change
//
// The encoded length never changes after creation: the allow list keeps its
// slot count and data is always need_data_size bytes, zero padded.
package queue
