// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package channel_test

import (
	"io"
	"testing"

	"github.com/creachadair/katcp"
	"github.com/creachadair/katcp/channel"
	"github.com/creachadair/taskgroup"
	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"
)

func TestDirect(t *testing.T) {
	defer leaktest.Check(t)()

	c, s := channel.Direct()

	g := taskgroup.New(nil)
	g.Go(func() error {
		msg := &katcp.Message{Type: katcp.Request, Name: "ping"}
		if err := c.Send(msg); err != nil {
			t.Errorf("A Send: %v", err)
		}
		got, err := c.Recv()
		if err != nil {
			t.Errorf("A Recv: %v", err)
		}
		if got != msg {
			t.Errorf("Message: got %v, want %v", got, msg)
		}
		return nil
	})
	g.Go(func() error {
		msg, err := s.Recv()
		if err != nil {
			t.Errorf("B Recv: %v", err)
		}
		if err := s.Send(msg); err != nil {
			t.Errorf("B Send: %v", err)
		}
		return nil
	})
	g.Wait()

	if err := c.Close(); err != nil {
		t.Errorf("c.Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("s.Close: %v", err)
	}

	if err := c.Send(nil); err == nil {
		t.Error("c.Send after close did not report an error")
	}
	if msg, err := c.Recv(); err == nil {
		t.Errorf("c.Recv after close: got %+v", msg)
	} else {
		t.Logf("Error OK: %v", err)
	}
}

func TestIO(t *testing.T) {
	defer leaktest.Check(t)()

	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	client := channel.IO(cr, cw)
	server := channel.IO(sr, sw)

	want := []*katcp.Message{
		{Type: katcp.Request, Name: "watchdog", ID: 1},
		{Type: katcp.Inform, Name: "log", Args: [][]byte{[]byte("info"), []byte("all systems go")}},
		{Type: katcp.Reply, Name: "watchdog", ID: 1, Args: [][]byte{[]byte("ok")}},
	}

	g := taskgroup.New(nil)
	g.Go(func() error {
		defer client.Close()
		for _, msg := range want {
			if err := client.Send(msg); err != nil {
				return err
			}
		}
		return nil
	})

	var got []*katcp.Message
	for range want {
		msg, err := server.Recv()
		if err != nil {
			t.Fatalf("Recv: unexpected error: %v", err)
		}
		got = append(got, msg)
	}
	if err := g.Wait(); err != nil {
		t.Errorf("Send: unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Messages (-want, +got):\n%s", diff)
	}

	if _, err := server.Recv(); err != io.EOF {
		t.Errorf("Recv after close: got %v, want %v", err, io.EOF)
	}
	server.Close()
}

// TestIOBadLine verifies that a malformed line on the wire surfaces as a
// parse error from Recv without disturbing the messages around it.
func TestIOBadLine(t *testing.T) {
	defer leaktest.Check(t)()

	sr, cw := io.Pipe()
	server := channel.IO(sr, discard{})

	g := taskgroup.New(nil)
	g.Go(func() error {
		defer cw.Close()
		_, err := io.WriteString(cw, "?first\nutter garbage\n!second[2]\n")
		return err
	})

	if msg, err := server.Recv(); err != nil || msg.Name != "first" {
		t.Errorf("Recv 1: got %v, %v; want ?first", msg, err)
	}
	msg, err := server.Recv()
	if perr, ok := err.(*katcp.ParseError); !ok {
		t.Errorf("Recv 2: got %v, %v; want *ParseError", msg, err)
	} else if perr.Kind != katcp.BadType {
		t.Errorf("Recv 2: got kind %v, want %v", perr.Kind, katcp.BadType)
	}
	if msg, err := server.Recv(); err != nil || msg.Name != "second" || msg.ID != 2 {
		t.Errorf("Recv 3: got %v, %v; want !second[2]", msg, err)
	}
	if err := g.Wait(); err != nil {
		t.Errorf("Write: unexpected error: %v", err)
	}
}

// discard is an io.WriteCloser that drops its input.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }
