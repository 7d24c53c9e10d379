// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp

import "fmt"

// The katcp escape alphabet. Each reserved byte maps to the symbol that
// follows a backslash in its escaped form; all other bytes pass through the
// wire unmodified. The tables are fixed data so that the encode and decode
// paths are branch-free lookups, and so that the inverse-mapping property is
// directly testable.

// escapeSymbol maps a raw byte to its escape symbol, or 0 if the byte does
// not require escaping. NUL itself is reserved, so 0 is safe as the "no
// escape" marker.
var escapeSymbol = [256]byte{
	0x00: '0',
	'\t': 't',
	'\n': 'n',
	'\r': 'r',
	0x1b: 'e',
	' ':  '_',
	'\\': '\\',
}

// unescapeValue maps an escape symbol to the byte it denotes. Entries not
// listed in unescapeOK are invalid regardless of their value here.
var unescapeValue = [256]byte{
	'0':  0x00,
	't':  '\t',
	'n':  '\n',
	'r':  '\r',
	'e':  0x1b,
	'_':  ' ',
	'\\': '\\',
}

// unescapeOK reports which escape symbols are defined. The null escape "@"
// is special: it decodes to no byte at all, marking an explicitly empty
// argument, and is handled by the callers rather than these tables.
var unescapeOK = [256]bool{
	'0': true, 't': true, 'n': true, 'r': true,
	'e': true, '_': true, '\\': true, '@': true,
}

// escapedLen reports the number of wire bytes needed to encode arg.
// An empty argument costs two bytes for the "\@" marker.
func escapedLen(arg []byte) int {
	if len(arg) == 0 {
		return 2
	}
	n := len(arg)
	for _, b := range arg {
		if escapeSymbol[b] != 0 {
			n++
		}
	}
	return n
}

// appendEscaped appends the wire encoding of arg to buf and returns the
// updated slice. The empty argument is encoded as the null escape "\@".
func appendEscaped(buf, arg []byte) []byte {
	if len(arg) == 0 {
		return append(buf, '\\', '@')
	}
	for _, b := range arg {
		if s := escapeSymbol[b]; s != 0 {
			buf = append(buf, '\\', s)
		} else {
			buf = append(buf, b)
		}
	}
	return buf
}

// EscapeArgument returns the wire encoding of arg, escaping each reserved
// byte and rendering an empty arg as the null escape "\@". The result is
// always freshly allocated.
func EscapeArgument(arg []byte) []byte {
	return appendEscaped(make([]byte, 0, escapedLen(arg)), arg)
}

// UnescapeArgument decodes the wire encoding of a single argument token. It
// reports an error if arg contains a bare trailing backslash, an undefined
// escape symbol, or a raw byte that may only appear escaped (NUL or ESC).
// The input "\@" decodes to an empty (non-nil) result.
func UnescapeArgument(arg []byte) ([]byte, error) {
	out := make([]byte, 0, len(arg))
	for i := 0; i < len(arg); i++ {
		switch b := arg[i]; b {
		case '\\':
			i++
			if i == len(arg) {
				return nil, fmt.Errorf("argument %q: trailing backslash", arg)
			}
			s := arg[i]
			if !unescapeOK[s] {
				return nil, fmt.Errorf("argument %q: invalid escape \\%c", arg, s)
			}
			if s != '@' {
				out = append(out, unescapeValue[s])
			}
		case 0x00, 0x1b:
			return nil, fmt.Errorf("argument %q: unescaped reserved byte 0x%02x", arg, b)
		default:
			out = append(out, b)
		}
	}
	return out, nil
}
