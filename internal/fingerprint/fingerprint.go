// Package fingerprint hashes an event stream into a stable content
// key. Two parses that emit the same events in the same order produce
// the same sum, regardless of how the input was chunked, so durable
// sinks can use it to skip storing a document they already hold.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

type Digest struct {
	h interface {
		Write(p []byte) (n int, err error)
		Sum(b []byte) []byte
	}
	n uint64
}

func New() *Digest {
	h, _ := blake2b.New256(nil)
	return &Digest{h: h}
}

// Add mixes one event into the digest. kind separates event types so
// e.g. a comment "x" and a text "x" hash differently; each field is
// length-prefixed so field boundaries cannot collide.
func (d *Digest) Add(kind int, fields ...string) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(kind))
	d.h.Write(scratch[:])
	for _, f := range fields {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(f)))
		d.h.Write(scratch[:])
		d.h.Write([]byte(f))
	}
	d.n++
}

// Events returns how many events have been mixed in.
func (d *Digest) Events() uint64 { return d.n }

// Sum returns the hex digest of everything added so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
