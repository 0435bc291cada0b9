// Package export renders the node and edge tables as CSV text:
//
//	id,Label          Source,Target
//	1,@alice          1,2
//
// Rows are separated by CRLF and the last row has no terminator. Ids are
// written exactly as received.
package export
