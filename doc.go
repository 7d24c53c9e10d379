// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package katcp implements the wire codec for the KATCP protocol.
//
// KATCP is a line-oriented, human-readable control protocol used by device
// servers and their clients. Each logical line of the stream carries one
// message: a request ("?"), a reply ("!"), or an asynchronous inform ("#"),
// followed by a name, an optional bracketed message ID, and a sequence of
// whitespace-separated arguments. Arguments may carry arbitrary bytes, which
// the wire form makes representable with a backslash escape alphabet.
//
// This package converts between wire bytes and [Message] values in both
// directions. It does not interpret message semantics, correlate requests
// with replies, or perform any I/O of its own.
//
// # Messages
//
// A [Message] is a plain immutable value. Construct one with [NewMessage],
// which validates the name grammar and the message ID range:
//
//	m, err := katcp.NewMessage(katcp.Request, "watchdog", 7)
//	if err != nil {
//	   log.Fatalf("Invalid message: %v", err)
//	}
//
// The Encode method renders the exact wire bytes for a message:
//
//	fmt.Printf("%q\n", m.Encode())  // "?watchdog[7]\n"
//
// Messages also satisfy [io.WriterTo], so they can be written directly to a
// stream.
//
// # Parsing
//
// A [Parser] is a streaming decoder: it accepts chunks of bytes that need
// not align with line boundaries, and yields one decoded message or one
// [*ParseError] per terminated line. Unterminated trailing bytes are
// buffered, up to a fixed bound, until a later chunk supplies the rest of
// the line:
//
//	p := katcp.NewParser(4096)
//	for msg, err := range p.Append(chunk) {
//	   if err != nil {
//	      log.Printf("Bad line: %v", err)
//	      continue
//	   }
//	   process(msg)
//	}
//
// A parse error reports one bad line; it never disturbs the lines that
// follow it, so a long-lived connection can survive transient garbage. The
// parser's length bound is its only defense against a peer that never sends
// a terminator: an oversized line is counted rather than stored, and is
// reported as a single [LineTooLong] error once its terminator arrives.
//
// A Parser is designed to be owned by a single reader loop. Append performs
// pure in-memory computation, so it is safe to call from a latency-sensitive
// read path; use BufferSize to reason about how much of the current line is
// pending before requesting more data.
//
// # Channels
//
// A [Channel] is a reliable ordered stream of messages shared by two
// parties. The channel subpackage provides implementations that wrap the
// codec around a reader and a writer, or pass messages directly in memory;
// none of them owns any protocol semantics.
//
// # Metrics
//
// Parsers maintain a collection of metrics while running. Use the
// [Parser.Metrics] method to obtain an [expvar.Map] containing the metrics
// exported by the codec. By default, metrics are shared globally among all
// parsers; [Parser.Detach] gives a parser a private map.
//
// The metrics currently exported include:
//
//   - lines_parsed: counter of lines decoded into messages
//   - parse_errors: counter of lines reported as parse errors
//   - lines_blank: counter of blank lines silently dropped
//   - messages_formatted: counter of messages encoded to wire form
package katcp
