// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package channel provides implementations of the katcp.Channel interface
// over byte streams and in-memory pipes. A channel owns no protocol
// semantics: it only moves messages produced and consumed by the codec.
package channel

import (
	"bufio"
	"io"
	"net"

	"github.com/creachadair/katcp"
)

// MaxLineLength is the line-length bound applied to the parser of a channel
// constructed by [IO]. Lines longer than this surface as parse errors from
// Recv rather than growing the buffer.
const MaxLineLength = 65536

// Direct constructs a connected pair of in-memory channels that pass
// messages directly without encoding to the wire. Messages sent to A are
// received by B and vice versa.
func Direct() (A, B *DirectChannel) {
	a2b := make(chan *katcp.Message)
	b2a := make(chan *katcp.Message)
	A = &DirectChannel{send: a2b, recv: b2a}
	B = &DirectChannel{send: b2a, recv: a2b}
	return
}

// A DirectChannel is one endpoint of an in-memory connected pair.
type DirectChannel struct {
	send chan<- *katcp.Message
	recv <-chan *katcp.Message
}

// Send implements a method of the [katcp.Channel] interface.
func (d *DirectChannel) Send(msg *katcp.Message) (err error) {
	defer safeClose(&err)
	d.send <- msg
	return nil
}

// Recv implements a method of the [katcp.Channel] interface.
func (d *DirectChannel) Recv() (*katcp.Message, error) {
	msg, ok := <-d.recv
	if !ok {
		return nil, net.ErrClosed
	}
	return msg, nil
}

// Close implements a method of the [katcp.Channel] interface. It closes the
// sending direction; messages already sent remain receivable by the other
// endpoint.
func (d *DirectChannel) Close() (err error) {
	defer safeClose(&err)
	close(d.send)
	return nil
}

func safeClose(err *error) {
	if x := recover(); x != nil && *err == nil {
		*err = net.ErrClosed
	}
}

// IO constructs a channel that decodes messages from r and encodes messages
// sent to wc.
func IO(r io.Reader, wc io.WriteCloser) *IOChannel {
	// N.B. The bufio package will reuse existing buffers if possible.
	return &IOChannel{
		r: bufio.NewReader(r),
		w: bufio.NewWriter(wc),
		c: wc,
		p: katcp.NewParser(MaxLineLength),
	}
}

// An IOChannel sends and receives katcp messages on a reader and a writer.
// It is safe for concurrent use by one sender and one receiver.
type IOChannel struct {
	r *bufio.Reader
	w *bufio.Writer
	c io.Closer
	p *katcp.Parser

	queue []result // decoded lines not yet delivered by Recv
	buf   [4096]byte
}

type result struct {
	msg *katcp.Message
	err error
}

// Send writes the wire encoding of msg to the underlying writer.
func (c *IOChannel) Send(msg *katcp.Message) error {
	if _, err := msg.WriteTo(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

// Recv returns the next decoded message from the underlying reader. A
// malformed line is reported as an error of concrete type
// [*katcp.ParseError]; the channel remains usable, and subsequent calls
// deliver the lines that follow it.
func (c *IOChannel) Recv() (*katcp.Message, error) {
	for len(c.queue) == 0 {
		nr, err := c.r.Read(c.buf[:])
		for msg, perr := range c.p.Append(c.buf[:nr]) {
			c.queue = append(c.queue, result{msg: msg, err: perr})
		}
		if err != nil && len(c.queue) == 0 {
			return nil, err
		}
	}
	out := c.queue[0]
	c.queue = c.queue[1:]
	return out.msg, out.err
}

// Close closes the underlying writer.
func (c *IOChannel) Close() error { return c.c.Close() }
