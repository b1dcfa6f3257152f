// Package fetch pulls a document over HTTP before it is handed to the
// parser. Compressed responses (gzip, deflate, br) are transparently
// decoded so the caller always sees plain bytes.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	br "github.com/andybalholm/brotli"
	flate "github.com/klauspost/compress/flate"
	gzip "github.com/klauspost/compress/gzip"
)

type Rval struct {
	Url     string
	Timeout int // ms, 0 means no deadline
	Retry   int
	Header  map[string]string
}

type Req struct {
	Respon   []byte
	Response *http.Response
	UsedTime time.Duration
}

func Fetch(ctx context.Context, val Rval) (*Req, error) {
	if val.Url == "" {
		return nil, errors.New("url == nil")
	}
	var (
		t    = &Req{}
		last error
	)
	for i := 0; i <= val.Retry; i++ {
		if last = t.reqf(ctx, val); last == nil {
			return t, nil
		}
	}
	return t, last
}

func (t *Req) reqf(ctx context.Context, val Rval) error {
	begin := time.Now()
	defer func() {
		t.UsedTime = time.Since(begin)
	}()

	if val.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(val.Timeout)*time.Millisecond)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, val.Url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range val.Header {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	t.Response = resp

	if resp.StatusCode >= 400 {
		return errors.New("response code " + strconv.Itoa(resp.StatusCode))
	}

	var resReader io.Reader = resp.Body
	if compress_type := resp.Header[`Content-Encoding`]; len(compress_type) != 0 {
		switch compress_type[0] {
		case `br`:
			resReader = br.NewReader(resp.Body)
		case `gzip`:
			resReader, err = gzip.NewReader(resp.Body)
			if err != nil {
				return err
			}
		case `deflate`:
			resReader = flate.NewReader(resp.Body)
		}
	}

	body, err := io.ReadAll(resReader)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	t.Respon = body
	return nil
}
