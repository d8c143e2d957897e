// Package engine executes rpnmath programs.
//
// An Executor owns one record buffer, one variable table and one block
// manager for a single evaluation. It walks the buffer with a forward cursor:
//
//  1. Find the next operator at or after the cursor; operands before it stay
//     in place.
//  2. Arithmetic and comparison operators replace their operands and
//     themselves with one result record. Assignment removes them.
//  3. Control-flow records open, skip, close or rewind blocks.
//  4. ret/N ends the evaluation with its last operand.
//
// ARCHITECTURE:
//
// Blocks:
// if takes its condition from the operand before it. while and elif take
// theirs from the first value produced inside the block, which is consumed.
// A false condition skips by bracket matching, landing on the next else or
// elif of the chain or past the matching end.
//
// Loops:
// Entering a while or loop saves a deep copy of its records. Reaching its end
// restores that copy and rewinds the cursor onto the opening record, which
// re-arms the same block for the next iteration.
//
// Variables:
// PolicyVersioned (the default) lets a variable be reassigned, bumping its
// version. PolicyPure rejects reassignment. Phi nodes pick the most recently
// versioned assigned source.
//
// Evaluation is single-threaded and deterministic. Resource use is bounded
// by Limits; every failure is a *RuntimeError with an ErrorCode.
package engine
