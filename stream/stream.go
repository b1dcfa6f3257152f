// Package stream bridges a byte stream onto the parser's push API: it
// reads bounded chunks from an io.Reader, keeps multi-byte UTF-8
// sequences intact across chunk boundaries, and hands each chunk to
// Write. Charset transcoding and transparent decompression sit in
// front as plain io.Reader wrappers, keeping the parser core on
// already-decoded text.
package stream

import (
	"context"
	"errors"
	"io"
	"unicode/utf8"

	br "github.com/andybalholm/brotli"
	flate "github.com/klauspost/compress/flate"
	gzip "github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Writer is the subset of the parser's surface the adapter drives.
type Writer interface {
	Write(chunk string) error
	End() error
}

var ErrUnknownEncoding = errors.New("unknown content encoding")

// Decompress wraps r according to a Content-Encoding token. An empty
// token returns r unchanged.
func Decompress(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case "", "identity":
		return r, nil
	case "br":
		return br.NewReader(r), nil
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	}
	return nil, ErrUnknownEncoding
}

// Transcode wraps r so its bytes are converted from the named IANA
// charset to UTF-8. An empty or utf-8 charset returns r unchanged.
func Transcode(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" || charset == "utf-8" || charset == "UTF-8" {
		return r, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.New("unsupported charset " + charset)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

const defaultChunkSize = 32 * 1024

// Adapter turns an io.Reader into repeated bounded Write calls.
type Adapter struct {
	// ChunkSize bounds each Read's byte length; zero means 32 KiB. A
	// Write can be up to utf8.UTFMax-1 bytes longer, when a held-back
	// partial rune is prepended to the next read.
	ChunkSize int

	// NoEnd leaves the document open after the reader drains, so a
	// caller can feed several readers into one parse.
	NoEnd bool
}

// Copy reads src to exhaustion, pushing each chunk into dst. A rune
// split by the read boundary is held back and prepended to the next
// chunk, so dst always sees whole code points. Unless NoEnd is set,
// dst.End runs after a clean drain.
func (a Adapter) Copy(ctx context.Context, dst Writer, src io.Reader) error {
	size := a.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	// +utf8.UTFMax leaves room to prepend a held-back partial rune.
	buf := make([]byte, size+utf8.UTFMax)
	held := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf[held : held+size])
		n += held
		held = 0

		// Hold back a trailing incomplete rune for the next read.
		cut := n
		if readErr == nil {
			for cut > 0 && !utf8.RuneStart(buf[cut-1]) {
				cut--
			}
			if cut > 0 && !utf8.FullRune(buf[cut-1:n]) {
				cut--
			} else {
				cut = n
			}
		}
		if cut < n {
			held = n - cut
		}

		if cut > 0 {
			if err := dst.Write(string(buf[:cut])); err != nil {
				return err
			}
		}
		if held > 0 {
			copy(buf, buf[cut:n])
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if held > 0 {
					// Truncated rune at end of stream: push it through
					// as-is rather than dropping input silently.
					if err := dst.Write(string(buf[:held])); err != nil {
						return err
					}
				}
				if a.NoEnd {
					return nil
				}
				return dst.End()
			}
			return readErr
		}
	}
}
