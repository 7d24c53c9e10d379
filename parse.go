// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp

import (
	"fmt"
	"iter"
)

// An ErrorKind classifies the reason a logical line failed to parse.
type ErrorKind int

const (
	BadCharacter ErrorKind = iota // a byte not permitted at its position
	BadType                       // missing or unknown message type prefix
	BadName                       // a name violating the name grammar
	BadID                         // a malformed, empty, or out-of-range message ID
	BadEscape                     // an undefined or truncated escape sequence
	LineTooLong                   // the line exceeded the parser's length bound
)

func (k ErrorKind) String() string {
	switch k {
	case BadCharacter:
		return "invalid character"
	case BadType:
		return "invalid message type"
	case BadName:
		return "invalid message name"
	case BadID:
		return "invalid message ID"
	case BadEscape:
		return "invalid escape"
	case LineTooLong:
		return "line too long"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// A ParseError reports why one logical line could not be decoded into a
// message. Pos is the 1-based byte offset on the line where the problem was
// detected. A ParseError never terminates the parser; parsing resumes on the
// next line.
type ParseError struct {
	Kind ErrorKind
	Pos  int
}

// Error satisfies the error interface.
func (e *ParseError) Error() string { return fmt.Sprintf("%v at character %d", e.Kind, e.Pos) }

// Parser states. The state encodes how much of the current logical line has
// been recognized; the buffered name and argument bytes live separately in
// the parser's storage.
type state byte

const (
	sStart      state = iota // beginning of a line, nothing seen yet
	sBlank                   // seen only whitespace on this line
	sBeforeName              // seen the type prefix, name not started
	sName                    // inside the name
	sBeforeID                // seen the [ opening the message ID
	sID                      // inside the message ID digits
	sAfterID                 // seen the ] closing the message ID
	sBeforeArg               // between arguments
	sArg                     // inside an argument
	sArgEscape               // seen a backslash inside an argument
	sError                   // invalid line, waiting for the terminator
	sEndOfLine               // terminal: line completed a message
	sErrorEOL                // terminal: line completed an error

	numStates
)

// Transition actions.
type action byte

const (
	actNone   action = iota
	actType          // record the message type from the input byte
	actName          // append the input byte to the name
	actID            // fold the input digit into the message ID
	actArg           // append the input byte to the current argument
	actEscape        // append a fixed replacement byte to the argument
	actBlank         // discard a blank line and restart
	actError         // record a parse error
)

// An entry is one cell of the transition table: the action to apply for an
// input byte in a given state, and the state that follows it.
type entry struct {
	next   state
	act    action
	repl   byte      // replacement byte, for actEscape
	newArg bool      // start a new argument before applying the action
	kind   ErrorKind // error classification, for actError
}

func errEntry(kind ErrorKind) entry { return entry{next: sError, act: actError, kind: kind} }

// makeRow builds the 256-entry transition row for one state. Space and tab
// are interchangeable separators, and CR terminates a line exactly as LF
// does, so the callback only needs to describe ' ' and '\n'; its rules are
// copied onto '\t' and '\r'. A '\n' that would land in the error state is
// promoted to the terminal error state so the line's error is reported.
func makeRow(f func(b byte) entry) (row [256]entry) {
	for i := range row {
		row[i] = f(byte(i))
	}
	if row['\n'].next == sError {
		row['\n'].next = sErrorEOL
	}
	row['\t'] = row[' ']
	row['\r'] = row['\n']
	return
}

var parseTable = buildParseTable()

func buildParseTable() (tab [numStates][256]entry) {
	tab[sStart] = makeRow(func(b byte) entry {
		switch b {
		case ' ':
			return entry{next: sBlank}
		case '?', '!', '#':
			return entry{next: sBeforeName, act: actType}
		case '\n':
			return entry{next: sStart, act: actBlank}
		}
		return errEntry(BadType)
	})
	tab[sBlank] = makeRow(func(b byte) entry {
		switch b {
		case ' ':
			return entry{next: sBlank}
		case '?', '!', '#':
			return entry{next: sBeforeName, act: actType}
		case '\n':
			return entry{next: sStart, act: actBlank}
		}
		return errEntry(BadType)
	})
	tab[sBeforeName] = makeRow(func(b byte) entry {
		if isNameLetter(b) {
			return entry{next: sName, act: actName}
		}
		return errEntry(BadName)
	})
	tab[sName] = makeRow(func(b byte) entry {
		switch {
		case isNameLetter(b) || isDigit(b) || b == '-':
			return entry{next: sName, act: actName}
		case b == ' ':
			return entry{next: sBeforeArg}
		case b == '[':
			return entry{next: sBeforeID}
		case b == '\n':
			return entry{next: sEndOfLine}
		}
		return errEntry(BadName)
	})
	tab[sBeforeID] = makeRow(func(b byte) entry {
		if b >= '1' && b <= '9' {
			return entry{next: sID, act: actID}
		}
		return errEntry(BadID)
	})
	tab[sID] = makeRow(func(b byte) entry {
		switch {
		case isDigit(b):
			return entry{next: sID, act: actID}
		case b == ']':
			return entry{next: sAfterID}
		}
		return errEntry(BadID)
	})
	tab[sAfterID] = makeRow(func(b byte) entry {
		switch b {
		case ' ':
			return entry{next: sBeforeArg}
		case '\n':
			return entry{next: sEndOfLine}
		}
		return errEntry(BadCharacter)
	})
	tab[sBeforeArg] = makeRow(argRow(true))
	tab[sArg] = makeRow(argRow(false))
	tab[sArgEscape] = makeRow(func(b byte) entry {
		if b == '@' {
			return entry{next: sArg} // null escape: contributes no byte
		}
		if unescapeOK[b] {
			return entry{next: sArg, act: actEscape, repl: unescapeValue[b]}
		}
		return errEntry(BadEscape)
	})
	tab[sError] = makeRow(func(b byte) entry {
		return entry{next: sError}
	})

	// The terminal states are never used for lookup: the parser finishes the
	// line and restarts before reading another byte. Error rows keep a table
	// bug from silently misparsing.
	tab[sEndOfLine] = makeRow(func(b byte) entry { return errEntry(BadCharacter) })
	tab[sErrorEOL] = tab[sEndOfLine]
	return
}

// argRow describes the sBeforeArg and sArg states, which differ only in
// whether a non-separator byte begins a new argument.
func argRow(newArg bool) func(b byte) entry {
	return func(b byte) entry {
		switch b {
		case ' ':
			return entry{next: sBeforeArg}
		case '\n':
			return entry{next: sEndOfLine}
		case '\\':
			return entry{next: sArgEscape, newArg: newArg}
		case 0x00, 0x1b:
			return errEntry(BadCharacter) // reserved bytes must be escaped
		}
		return entry{next: sArg, act: actArg, newArg: newArg}
	}
}

// A Parser is a streaming decoder for katcp wire data. It accepts chunks of
// bytes that need not align with line boundaries and yields one message or
// one error per terminated logical line, retaining unterminated tail bytes
// between calls.
//
// A Parser is mutable shared state for a single connection; it must not be
// used concurrently from multiple goroutines without external locking.
type Parser struct {
	maxLine int
	st      state
	lineLen int // bytes seen on the current line, capped at maxLine

	mtype MessageType
	mid   int64

	// The name and argument bytes of the current line are stored
	// back-to-back; argStart records where each argument begins, so the whole
	// line needs O(1) allocations no matter how many arguments it has.
	argStart []int
	storage  []byte

	err     *ParseError
	metrics *codecMetrics
}

// NewParser constructs a parser that accepts lines of up to maxLineLength
// bytes. It panics if maxLineLength is less than 1: a parser that can buffer
// nothing is a programmer error, not a wire condition.
func NewParser(maxLineLength int) *Parser {
	if maxLineLength < 1 {
		panic(fmt.Sprintf("katcp: invalid max line length %d", maxLineLength))
	}
	return &Parser{maxLine: maxLineLength, metrics: rootMetrics}
}

// BufferSize reports the number of bytes currently held for the open,
// unterminated line. The count is capped at the parser's maximum line
// length, even when a longer (oversized) line is in progress.
func (p *Parser) BufferSize() int { return p.lineLen }

// Reset discards the open line's buffered bytes and any pending error,
// returning the parser to its initial state. Messages already yielded by
// Append are unaffected.
func (p *Parser) Reset() {
	p.st = sStart
	p.lineLen = 0
	p.mtype = 0
	p.mid = 0
	p.argStart = p.argStart[:0]
	p.storage = p.storage[:0]
	p.err = nil
}

// Append adds data to the parser and returns an iterator over the messages
// and per-line parse errors that result, in the order their lines were
// terminated. Each pair is either (msg, nil) or (nil, err) with err of
// concrete type [*ParseError].
//
// Input is consumed lazily as the sequence is iterated; abandoning the
// iterator early discards the unread remainder of data. Append performs no
// I/O and never blocks.
func (p *Parser) Append(data []byte) iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		for len(data) > 0 {
			msg, perr, rest := p.scan(data)
			data = rest
			if msg == nil && perr == nil {
				return // all input consumed, line still open
			}
			if perr != nil {
				if !yield(nil, perr) {
					return
				}
			} else if !yield(msg, nil) {
				return
			}
		}
	}
}

// Parse runs a fresh parser with no effective line-length bound over a
// complete input and collects the results.
func Parse(data []byte) (msgs []*Message, errs []error) {
	p := NewParser(len(data) + 1)
	for msg, err := range p.Append(data) {
		if err != nil {
			errs = append(errs, err)
		} else {
			msgs = append(msgs, msg)
		}
	}
	return
}

// scan consumes bytes from data until a line terminator completes a message
// or an error, returning the outcome and the unconsumed remainder. If data
// runs out mid-line, all results are zero and the line stays buffered.
func (p *Parser) scan(data []byte) (*Message, *ParseError, []byte) {
	for i := 0; i < len(data); i++ {
		// The length bound is the only defense against a peer that never
		// sends a terminator: once the line overflows, stop storing and wait
		// for the terminator to report it.
		if p.lineLen >= p.maxLine && p.st != sError {
			p.fail(LineTooLong, p.lineLen+1)
		}

		e := &parseTable[p.st][data[i]]
		if e.newArg {
			p.argStart = append(p.argStart, len(p.storage))
		}
		p.st = e.next

		pos := p.lineLen + 1
		if p.lineLen < p.maxLine {
			p.lineLen++
		}

		switch e.act {
		case actType:
			p.mtype = MessageType(data[i])
		case actName, actArg:
			p.storage = append(p.storage, data[i])
		case actID:
			if v := p.mid*10 + int64(data[i]-'0'); v > MaxID {
				p.fail(BadID, pos)
			} else {
				p.mid = v
			}
		case actEscape:
			p.storage = append(p.storage, e.repl)
		case actBlank:
			p.lineLen = 0
			p.metrics.lineBlank.Add(1)
		case actError:
			p.fail(e.kind, pos)
		}

		switch p.st {
		case sEndOfLine:
			msg := p.finish()
			p.metrics.lineParsed.Add(1)
			return msg, nil, data[i+1:]
		case sErrorEOL:
			err := p.err
			p.Reset()
			p.metrics.lineErr.Add(1)
			return nil, err, data[i+1:]
		}
	}
	return nil, nil, nil
}

// fail records a parse error for the current line and releases the line's
// buffered bytes early. Only the first error on a line is kept.
func (p *Parser) fail(kind ErrorKind, pos int) {
	if p.st != sErrorEOL {
		p.st = sError
	}
	if p.err == nil {
		p.err = &ParseError{Kind: kind, Pos: pos}
	}
	p.argStart = p.argStart[:0]
	p.storage = p.storage[:0]
}

// finish assembles the completed line into a message and resets for the next
// line. The message copies out of the parser's storage, so it remains valid
// after the parser moves on.
func (p *Parser) finish() *Message {
	p.argStart = append(p.argStart, len(p.storage))
	msg := &Message{
		Type: p.mtype,
		Name: string(p.storage[:p.argStart[0]]),
		ID:   int(p.mid),
	}
	if n := len(p.argStart) - 1; n > 0 {
		msg.Args = make([][]byte, n)
		for i := range n {
			a, b := p.argStart[i], p.argStart[i+1]
			msg.Args[i] = append([]byte(nil), p.storage[a:b]...)
		}
	}
	p.Reset()
	return msg
}
