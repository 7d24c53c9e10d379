// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp

import (
	"io"
	"strconv"
)

// encodedLen reports the exact number of wire bytes Encode will produce for
// m, so the encoder can allocate once.
func (m *Message) encodedLen() int {
	n := 2 + len(m.Name) + len(m.Args) // type prefix, name, separators, newline
	if m.ID != 0 {
		n += 2 + idLen(m.ID)
	}
	for _, arg := range m.Args {
		n += escapedLen(arg)
	}
	return n
}

func idLen(id int) int {
	n := 1
	for id >= 10 {
		id /= 10
		n++
	}
	return n
}

// Append appends the wire encoding of m to buf and returns the updated
// slice. The message must have been constructed with valid fields (as
// [NewMessage] enforces); Append does not re-check them.
func (m *Message) Append(buf []byte) []byte {
	buf = append(buf, byte(m.Type))
	buf = append(buf, m.Name...)
	if m.ID != 0 {
		buf = append(buf, '[')
		buf = strconv.AppendInt(buf, int64(m.ID), 10)
		buf = append(buf, ']')
	}
	for _, arg := range m.Args {
		buf = append(buf, ' ')
		buf = appendEscaped(buf, arg)
	}
	return append(buf, '\n')
}

// Encode encodes m into its exact wire bytes: the type prefix, the name, the
// bracketed message ID if present, one space before each escaped argument,
// and a newline terminator.
func (m *Message) Encode() []byte {
	out := m.Append(make([]byte, 0, m.encodedLen()))
	rootMetrics.msgFormatted.Add(1)
	return out
}

// WriteTo writes the wire encoding of m to w. It satisfies io.WriterTo.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	nw, err := w.Write(m.Encode())
	return int64(nw), err
}
