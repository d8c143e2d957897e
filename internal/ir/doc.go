// Package ir defines the record vocabulary of the rpnmath evaluator.
//
// A program is a postfix sequence of records. Every record is one variant of
// the sealed Item interface: Void, Constant, LocalRef, Operator,
// VariadicOperator or ControlFlowOperator. This package contains type
// definitions and pure helpers only. All other internal packages import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - A record's encoded length is derived from its own header alone
//     (Item.Size). Constants carry their payload length in the header.
//   - Integer constants are two's complement, little-endian, and never wider
//     than MaxWidth (64) bits.
//   - Records cross ownership boundaries by deep copy (Clone). Nothing in
//     this package aliases a caller's byte slice.
package ir
