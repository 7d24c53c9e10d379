// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// A MessageType describes the role of a katcp message. Its value is the
// one-byte wire prefix for that role.
//
// The protocol defines exactly three roles: a client sends a Request, the
// device server answers with a Reply, and either side may send an Inform
// asynchronously. No other values are valid.
type MessageType byte

const (
	Request MessageType = '?' // A request from client to server
	Reply   MessageType = '!' // The final reply to a request
	Inform  MessageType = '#' // An asynchronous or in-reply inform
)

// isValid reports whether t is one of the defined message types.
func (t MessageType) isValid() bool { return t == Request || t == Reply || t == Inform }

func (t MessageType) String() string {
	switch t {
	case Request:
		return "REQUEST"
	case Reply:
		return "REPLY"
	case Inform:
		return "INFORM"
	default:
		return fmt.Sprintf("TYPE:%q", byte(t))
	}
}

// MaxID is the maximum permitted message ID.
const MaxID = math.MaxInt32

// Errors reported for invalid message construction. Use [errors.Is] to check
// for them in wrapped errors.
var (
	ErrBadType      = errors.New("invalid message type")
	ErrBadName      = errors.New("invalid message name")
	ErrIDOutOfRange = errors.New("message ID out of range")
)

// A Message is the parsed form of a single katcp line. A Message is a plain
// value: once constructed it is not modified by any method of this package,
// and it holds no reference to the parser or input it was decoded from.
type Message struct {
	Type MessageType
	Name string
	ID   int      // message ID, or 0 if the message has none
	Args [][]byte // positional arguments; order is significant
}

// NewMessage constructs a message with the given type, name, message ID, and
// arguments, and reports an error if any field is invalid. Pass id == 0 for a
// message without an ID. The returned message aliases args without copying.
func NewMessage(mtype MessageType, name string, id int, args ...[]byte) (*Message, error) {
	if !mtype.isValid() {
		return nil, fmt.Errorf("%w %q", ErrBadType, byte(mtype))
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if id != 0 {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
	}
	return &Message{Type: mtype, Name: name, ID: id, Args: args}, nil
}

// ValidateName reports whether name satisfies the katcp name grammar: an
// ASCII letter followed by any number of ASCII letters, digits, or hyphens.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrBadName)
	}
	for i := range len(name) {
		b := name[i]
		if isNameLetter(b) || (i > 0 && (b == '-' || isDigit(b))) {
			continue
		}
		return fmt.Errorf("%w %q: bad byte at offset %d", ErrBadName, name, i)
	}
	return nil
}

// ValidateID reports whether id is a permitted message ID, in the range 1 to
// [MaxID] inclusive. An out-of-range value is a construction failure, never
// silently clamped.
func ValidateID(id int) error {
	if id < 1 || id > MaxID {
		return fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	return nil
}

func isNameLetter(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }
func isDigit(b byte) bool      { return b >= '0' && b <= '9' }

// A Channel is a reliable ordered stream of messages shared by two parties.
//
// The methods of an implementation must be safe for concurrent use by one
// sender and one receiver.
type Channel interface {
	// Send the message to the receiver.
	Send(*Message) error

	// Receive the next available message from the channel.
	Recv() (*Message, error)

	// Close the channel, causing any pending send or receive operations to
	// terminate and report an error. After a channel is closed, all further
	// operations on it must report an error.
	Close() error
}

// String returns a human-friendly rendering of the message.
func (m *Message) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Message(%v, %s", m.Type, m.Name)
	if m.ID != 0 {
		fmt.Fprintf(&sb, "[%d]", m.ID)
	}
	for _, arg := range m.Args {
		fmt.Fprintf(&sb, ", %q", arg)
	}
	sb.WriteString(")")
	return sb.String()
}
