// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package arg provides support for building and scanning typed katcp
// argument lists. The codec treats arguments as opaque byte strings; this
// package layers the conventional katcp text encodings (decimal integers,
// "1"/"0" booleans, floating-point values) on top without imposing any
// schema of its own.
package arg

import (
	"fmt"
	"io"
	"strconv"

	"github.com/creachadair/mds/value"
)

// A Builder accumulates typed values into an argument list for a message.
// The zero value is ready for use as an empty builder.
type Builder struct {
	args [][]byte
}

// Bool appends a Boolean to b. The encoding is a single byte "1" or "0".
func (b *Builder) Bool(ok bool) { b.args = append(b.args, []byte{value.Cond[byte](ok, '1', '0')}) }

// Int appends v to b in decimal form.
func (b *Builder) Int(v int64) { b.args = append(b.args, strconv.AppendInt(nil, v, 10)) }

// Float appends v to b in the shortest decimal form that round-trips.
func (b *Builder) Float(v float64) {
	b.args = append(b.args, strconv.AppendFloat(nil, v, 'g', -1, 64))
}

// String appends the bytes of s to b as one argument.
func (b *Builder) String(s string) { b.args = append(b.args, []byte(s)) }

// Bytes appends v to b as one argument. The builder aliases v without
// copying it.
func (b *Builder) Bytes(v []byte) { b.args = append(b.args, v) }

// Len reports the number of arguments currently in the builder.
func (b *Builder) Len() int { return len(b.args) }

// Args reports the accumulated argument list, suitable for passing to the
// message constructor. The builder retains ownership of the reported slice,
// and the caller must not modify its contents unless b will no longer be
// accessed.
func (b *Builder) Args() [][]byte { return b.args }

// Reset discards the contents of b and leaves it empty.
func (b *Builder) Reset() { b.args = b.args[:0] }

// A Scanner reads typed values from a message's argument list in order.
// The methods of a scanner return [io.EOF] when no further arguments are
// available.
type Scanner struct {
	args   [][]byte
	offset int
}

// NewScanner constructs a [Scanner] that consumes args in order. The
// scanner does not modify args, but retains and aliases the slice.
func NewScanner(args [][]byte) *Scanner { return &Scanner{args: args} }

// Bytes scans the next argument as a raw byte string. The value aliases the
// input, and the caller must not modify its contents.
func (s *Scanner) Bytes() ([]byte, error) {
	if len(s.args) == 0 {
		return nil, io.EOF
	}
	out := s.args[0]
	s.args = s.args[1:]
	s.offset++
	return out, nil
}

// String scans the next argument as a string.
func (s *Scanner) String() (string, error) {
	out, err := s.Bytes()
	return string(out), err
}

// Bool scans the next argument as a Boolean: "1" is true and "0" is false;
// any other value is an error.
func (s *Scanner) Bool() (bool, error) {
	out, err := s.Bytes()
	if err != nil {
		return false, err
	}
	switch string(out) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("argument %d: invalid boolean %q", s.offset, out)
}

// Int scans the next argument as a decimal integer.
func (s *Scanner) Int() (int64, error) {
	out, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", s.offset, err)
	}
	return v, nil
}

// Float scans the next argument as a floating-point value.
func (s *Scanner) Float() (float64, error) {
	out, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(out), 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", s.offset, err)
	}
	return v, nil
}

// Len reports the number of remaining unconsumed arguments in s.
func (s *Scanner) Len() int { return len(s.args) }

// Offset reports the number of arguments already consumed from s.
func (s *Scanner) Offset() int { return s.offset }
