package katcp

import "testing"

func TestEscapeTablesInverse(t *testing.T) {
	// Exactly the reserved bytes require escaping.
	reserved := map[byte]byte{
		0x00: '0', '\t': 't', '\n': 'n', '\r': 'r',
		0x1b: 'e', ' ': '_', '\\': '\\',
	}
	for b := range 256 {
		sym := escapeSymbol[byte(b)]
		want, ok := reserved[byte(b)]
		if !ok {
			if sym != 0 {
				t.Errorf("escapeSymbol[%#02x] = %q, want none", b, sym)
			}
			continue
		}
		if sym != want {
			t.Errorf("escapeSymbol[%#02x] = %q, want %q", b, sym, want)
		}

		// The decode table must invert the encode table.
		if !unescapeOK[sym] {
			t.Errorf("unescapeOK[%q] = false, want true", sym)
		}
		if got := unescapeValue[sym]; got != byte(b) {
			t.Errorf("unescapeValue[%q] = %#02x, want %#02x", sym, got, b)
		}
	}

	// The null escape is decodable but is not the encoding of any byte.
	if !unescapeOK['@'] {
		t.Error("unescapeOK['@'] = false, want true")
	}

	// No symbols beyond the defined alphabet decode.
	const alphabet = "0tnre_\\@"
	var count int
	for s := range 256 {
		if unescapeOK[byte(s)] {
			count++
		}
	}
	if count != len(alphabet) {
		t.Errorf("Decode alphabet has %d symbols, want %d", count, len(alphabet))
	}
}

func TestParseTableFraming(t *testing.T) {
	for st := sStart; st < numStates; st++ {
		row := &parseTable[st]

		// Space and tab behave identically, as do the two terminators.
		if row['\t'] != row[' '] {
			t.Errorf("State %d: tab and space entries differ", st)
		}
		if row['\r'] != row['\n'] {
			t.Errorf("State %d: CR and LF entries differ", st)
		}

		// A terminator must always complete the line one way or another, so
		// that no input can leave a line open past its terminator.
		switch next := row['\n'].next; next {
		case sStart, sEndOfLine, sErrorEOL:
			// ok
		default:
			t.Errorf("State %d: terminator leads to state %d", st, next)
		}
	}
}
