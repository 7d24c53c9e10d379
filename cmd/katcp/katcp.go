// Program katcp is a command-line utility for inspecting and generating
// KATCP wire data.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/katcp"
)

var parseFlags struct {
	MaxLine int  `flag:"max-line,default=65536,Maximum accepted line length in bytes"`
	Wire    bool `flag:"wire,Re-encode parsed messages in wire format"`
}

var formatFlags struct {
	MID    int  `flag:"mid,Message ID to attach (0 for none)"`
	Quoted bool `flag:"quoted,Unquote arguments as Go string literals"`
}

func main() {
	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Help: "Utilities for inspecting and generating KATCP wire data.",
		Commands: []*command.C{
			{
				Name: "parse",
				Help: `Decode KATCP wire data from stdin.

Each terminated line of input produces one line of output: a rendering of
the decoded message, or a description of why the line did not parse.
A malformed line does not stop processing. With --wire, well-formed
messages are re-encoded to canonical wire bytes instead.
`,
				SetFlags: command.Flags(flax.MustBind, &parseFlags),
				Run:      runParse,
			},
			{
				Name:  "format",
				Usage: "<type> <name> <argument>...",
				Help: `Encode a single message to wire format on stdout.

The type is one of "request", "reply", or "inform", or the corresponding
wire prefix "?", "!", or "#". Remaining arguments become the message
arguments; with --quoted they are first unquoted as Go string literals,
permitting arbitrary bytes (e.g. "a\x00b").
`,
				SetFlags: command.Flags(flax.MustBind, &formatFlags),
				Run:      runFormat,
			},
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

func runParse(env *command.Env) error {
	p := katcp.NewParser(parseFlags.MaxLine)
	buf := make([]byte, 4096)
	for {
		nr, err := os.Stdin.Read(buf)
		for msg, perr := range p.Append(buf[:nr]) {
			if perr != nil {
				fmt.Printf("error: %v\n", perr)
			} else if parseFlags.Wire {
				os.Stdout.Write(msg.Encode())
			} else {
				fmt.Println(msg)
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
	}
	if n := p.BufferSize(); n != 0 {
		fmt.Fprintf(os.Stderr, "warning: %d unterminated bytes at EOF\n", n)
	}
	return nil
}

func runFormat(env *command.Env) error {
	if len(env.Args) < 2 {
		return env.Usagef("Missing type and name arguments")
	}
	mtype, err := parseType(env.Args[0])
	if err != nil {
		return err
	}
	args := make([][]byte, len(env.Args[2:]))
	for i, arg := range env.Args[2:] {
		if formatFlags.Quoted {
			dec, err := strconv.Unquote(`"` + arg + `"`)
			if err != nil {
				return fmt.Errorf("invalid argument %q: %w", arg, err)
			}
			arg = dec
		}
		args[i] = []byte(arg)
	}
	msg, err := katcp.NewMessage(mtype, env.Args[1], formatFlags.MID, args...)
	if err != nil {
		return err
	}
	os.Stdout.Write(msg.Encode())
	return nil
}

func parseType(s string) (katcp.MessageType, error) {
	switch strings.ToLower(s) {
	case "request", "?":
		return katcp.Request, nil
	case "reply", "!":
		return katcp.Reply, nil
	case "inform", "#":
		return katcp.Inform, nil
	}
	return 0, fmt.Errorf("invalid message type %q", s)
}
