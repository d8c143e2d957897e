// Package buffer holds a program as an ordered sequence of ir records.
//
// The buffer accounts for the encoded byte length of every record (its
// Size) and grows its byte capacity geometrically, doubling or growing to
// an exact fit when doubling is not enough. Records are never reordered:
// removal excises a contiguous range and shifts the remainder left.
//
// Lookups walk the records from the front, so ScanLast and PeekKind observe
// the same "last in buffer order" answer a left-to-right scan would give.
// Every record that leaves the buffer (Pop, Slice, Items) is a deep copy.
//
// A Buffer is owned by one evaluation session and is not safe for
// concurrent use.
package buffer
