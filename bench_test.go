// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp_test

import (
	"bytes"
	"testing"

	"github.com/creachadair/katcp"
)

func BenchmarkParse(b *testing.B) {
	var input bytes.Buffer
	for range 100 {
		input.WriteString("?sensor-value[1234] 1631234567.89 1 anc.gust-wind-speed nominal 5.1\n")
	}
	data := input.Bytes()

	b.Run("Whole", func(b *testing.B) {
		p := katcp.NewParser(4096)
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			for msg, err := range p.Append(data) {
				if err != nil {
					b.Fatal(err)
				}
				_ = msg
			}
		}
	})
	b.Run("Chunked", func(b *testing.B) {
		p := katcp.NewParser(4096)
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			for chunk := data; len(chunk) != 0; {
				n := min(57, len(chunk))
				for msg, err := range p.Append(chunk[:n]) {
					if err != nil {
						b.Fatal(err)
					}
					_ = msg
				}
				chunk = chunk[n:]
			}
		}
	})
}

func BenchmarkFormat(b *testing.B) {
	msg, err := katcp.NewMessage(katcp.Reply, "sensor-value", 1234,
		[]byte("1631234567.89"), []byte("1"), []byte("anc.gust wind speed"), []byte("nominal"), []byte("5.1"))
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Encode", func(b *testing.B) {
		for b.Loop() {
			_ = msg.Encode()
		}
	})
	b.Run("Append", func(b *testing.B) {
		buf := make([]byte, 0, 256)
		for b.Loop() {
			buf = msg.Append(buf[:0])
		}
	})
}
