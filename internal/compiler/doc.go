// Package compiler turns rpnmath source text into ir records.
//
// Source is a whitespace-separated postfix token stream:
//
//	5 $0 = $0 3 + ret/1
//	0 $0 = while $0 3 < $0 1 + $0 = end $0 ret/1
//
// Compile tokenizes and builds records; Validate runs static structural
// checks (block balance, branch placement, operand availability) without
// executing anything.
package compiler
