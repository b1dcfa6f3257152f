package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gzip "github.com/klauspost/compress/gzip"
)

func TestFetchPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<a/>"))
	}))
	defer srv.Close()

	req, err := Fetch(context.Background(), Rval{Url: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Respon) != "<a/>" {
		t.Fatalf("body = %q", req.Respon)
	}
}

func TestFetchGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		zw.Write([]byte("<a>zipped</a>"))
		zw.Close()
	}))
	defer srv.Close()

	req, err := Fetch(context.Background(), Rval{Url: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Respon) != "<a>zipped</a>" {
		t.Fatalf("body = %q", req.Respon)
	}
}

func TestFetchBadStatusRetries(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), Rval{Url: srv.URL, Retry: 2}); err == nil {
		t.Fatal("want error")
	}
	if hits != 3 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestFetchNoURL(t *testing.T) {
	if _, err := Fetch(context.Background(), Rval{}); err == nil {
		t.Fatal("want error")
	}
}
