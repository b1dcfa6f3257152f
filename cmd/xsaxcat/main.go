// xsaxcat parses XML documents from files, URLs, or stdin and prints,
// stores, or broadcasts the resulting event stream.
//
// Usage:
//
//	xsaxcat [flags] [file|url ...]
//
// With no arguments it reads stdin. Several inputs parse in parallel,
// each with its own parser instance.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/skratchdot/open-golang/open"
	"golang.org/x/sync/errgroup"

	xsax "github.com/qydysky/xsax"
	"github.com/qydysky/xsax/internal/diag"
	"github.com/qydysky/xsax/internal/fetch"
	"github.com/qydysky/xsax/internal/intern"
	"github.com/qydysky/xsax/internal/sysutil"
	"github.com/qydysky/xsax/sink"
	"github.com/qydysky/xsax/stream"
)

var (
	fStrict         = flag.Bool("strict", false, "emit errors on XML violations instead of recovering")
	fTrim           = flag.Bool("trim", false, "strip leading/trailing whitespace from text and comments")
	fNormalize      = flag.Bool("normalize", false, "collapse whitespace runs in text and comments")
	fLowercase      = flag.Bool("lowercase", false, "non-strict mode folds names to lowercase instead of uppercase")
	fXmlns          = flag.Bool("xmlns", false, "resolve namespaces and emit qualified tags")
	fPos            = flag.Bool("pos", false, "track line/column and annotate errors")
	fStrictEntities = flag.Bool("strict-entities", false, "only the five XML-predefined entities")
	fNoscript       = flag.Bool("noscript", false, "disable <script> raw-content mode")
	fChunk          = flag.Int("chunk", 0, "bytes per write (0 = 32KiB), for exercising chunked input")
	fSink           = flag.String("sink", "print", "print | sqlite | pg | ws")
	fDB             = flag.String("db", "events.db", "sqlite path for -sink sqlite")
	fDSN            = flag.String("dsn", "", "postgres dsn for -sink pg")
	fAddr           = flag.String("addr", "127.0.0.1:18080", "listen address for -sink ws")
	fCharset        = flag.String("charset", "", "source charset (IANA name), transcoded to UTF-8")
	fReport         = flag.Bool("report", false, "write an HTML summary and open it")
	fDiag           = flag.Bool("diag", false, "print memory/cpu usage after parsing")
	fQuiet          = flag.Bool("quiet", false, "suppress per-event output")
	fLogFile        = flag.String("log", "", "also write diagnostics to this file")
)

func main() {
	flag.Parse()

	logger := diag.New(&diag.Log{File: *fLogFile})
	runID := uuid.NewString()
	logger.L(diag.I, "run", runID)

	inputs := flag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	var (
		group, ctx = errgroup.WithContext(context.Background())
		mu         sync.Mutex
		summaries  []summary
	)

	for _, in := range inputs {
		group.Go(func() error {
			s, err := parseOne(ctx, logger, runID, in, color)
			mu.Lock()
			summaries = append(summaries, s)
			mu.Unlock()
			return err
		})
	}
	err := group.Wait()

	for _, s := range summaries {
		fmt.Fprintf(os.Stderr, "%s: %d events, %d errors, %s in, fingerprint %.16s\n",
			s.input, s.events, s.errors, humanize.Bytes(uint64(s.bytes)), s.fingerprint)
	}

	if *fDiag {
		printDiag(logger)
	}
	if *fReport {
		if path, rerr := writeReport(runID, summaries); rerr != nil {
			logger.L(diag.E, "report", rerr)
		} else if oerr := open.Run(path); oerr != nil {
			logger.L(diag.W, "report written to", path, "but could not open:", oerr)
		}
	}
	if err != nil {
		logger.L(diag.E, err)
		os.Exit(1)
	}
}

type summary struct {
	input       string
	events      int
	errors      int
	bytes       int64
	fingerprint string
}

func parseOne(ctx context.Context, logger *diag.Log, runID, input string, color bool) (summary, error) {
	sum := summary{input: input}

	collect := sink.NewCollect()
	sinks := []xsax.Sink{collect.Sink()}
	var closers []func()

	switch *fSink {
	case "print":
		if !*fQuiet {
			sinks = append(sinks, printSink(input, color))
		}
	case "sqlite":
		store, err := sink.OpenSqlite(ctx, *fDB, runID)
		if err != nil {
			return sum, err
		}
		sinks = append(sinks, store.Sink())
		closers = append(closers, func() {
			if serr := store.Err(); serr != nil {
				logger.L(diag.E, "sqlite", serr)
			}
			store.Close()
		})
	case "pg":
		store, err := sink.OpenPostgres(ctx, *fDSN, runID)
		if err != nil {
			return sum, err
		}
		sinks = append(sinks, store.Sink())
		closers = append(closers, func() {
			if serr := store.Err(); serr != nil {
				logger.L(diag.E, "postgres", serr)
			}
			store.Close(context.Background())
		})
	case "ws":
		hub := sink.NewWSHub()
		srv := &http.Server{Addr: *fAddr, Handler: hub}
		go srv.ListenAndServe()
		logger.L(diag.I, "websocket viewers:", "ws://"+*fAddr)
		sinks = append(sinks, hub.Sink())
		closers = append(closers, func() {
			hub.Close()
			srv.Close()
		})
	default:
		return sum, fmt.Errorf("unknown sink %q", *fSink)
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	parser := xsax.NewParser(multiSink(sinks),
		xsax.WithStrict(*fStrict),
		xsax.WithTrim(*fTrim),
		xsax.WithNormalize(*fNormalize),
		xsax.WithLowercase(*fLowercase),
		xsax.WithXMLNS(*fXmlns),
		xsax.WithTrackPosition(*fPos),
		xsax.WithStrictEntities(*fStrictEntities),
		xsax.WithNoScript(*fNoscript),
	)

	// Ctrl-C flushes what has been buffered so the event stream is not
	// silently truncated mid-text.
	_, stopWatch := sysutil.OnInterrupt(func() {
		parser.Flush()
		parser.End()
	})
	defer stopWatch()

	if err := feed(ctx, parser, input, &sum.bytes); err != nil {
		return sum, fmt.Errorf("%s: %w", input, err)
	}

	for _, e := range collect.Events {
		if e.Kind == xsax.EventError {
			sum.errors++
		}
	}
	sum.events = len(collect.Events)
	sum.fingerprint = collect.Fingerprint()
	return sum, nil
}

// feed routes one input to the parser: http(s) URLs through fetch,
// "-" from stdin, anything else from the filesystem. Compressed files
// are recognised by extension.
func feed(ctx context.Context, parser *xsax.Parser, input string, bytesIn *int64) error {
	adapter := stream.Adapter{ChunkSize: *fChunk}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		req, err := fetch.Fetch(ctx, fetch.Rval{Url: input, Retry: 1})
		if err != nil {
			return err
		}
		*bytesIn = int64(len(req.Respon))
		r, err := stream.Transcode(bytes.NewReader(req.Respon), *fCharset)
		if err != nil {
			return err
		}
		return adapter.Copy(ctx, parser, r)
	}

	var (
		src      = os.Stdin
		encoding string
		err      error
	)
	if input != "-" {
		if src, err = os.Open(input); err != nil {
			return err
		}
		defer src.Close()
		switch filepath.Ext(input) {
		case ".gz":
			encoding = "gzip"
		case ".br":
			encoding = "br"
		case ".zz":
			encoding = "deflate"
		}
		if fi, serr := src.Stat(); serr == nil {
			*bytesIn = fi.Size()
		}
	}
	r, err := stream.Decompress(src, encoding)
	if err != nil {
		return err
	}
	if r, err = stream.Transcode(r, *fCharset); err != nil {
		return err
	}
	return adapter.Copy(ctx, parser, r)
}

// multiSink fans one event out to several sinks in order.
func multiSink(sinks []xsax.Sink) xsax.Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return xsax.FuncSink(func(e xsax.Event) {
		for _, s := range sinks {
			forward(s, e)
		}
	})
}

func forward(s xsax.Sink, e xsax.Event) {
	switch e.Kind {
	case xsax.EventReady:
		s.OnReady()
	case xsax.EventText:
		s.OnText(e.Text)
	case xsax.EventDoctype:
		s.OnDoctype(e.Text)
	case xsax.EventProcessingInstruction:
		s.OnProcessingInstruction(e.Name, e.Body)
	case xsax.EventSGMLDeclaration:
		s.OnSGMLDeclaration(e.Text)
	case xsax.EventOpenCData:
		s.OnOpenCData()
	case xsax.EventCData:
		s.OnCData(e.Text)
	case xsax.EventCloseCData:
		s.OnCloseCData()
	case xsax.EventComment:
		s.OnComment(e.Text)
	case xsax.EventOpenTagStart:
		s.OnOpenTagStart(e.Name)
	case xsax.EventAttribute:
		s.OnAttribute(e.Attribute)
	case xsax.EventOpenNamespace:
		s.OnOpenNamespace(e.Binding)
	case xsax.EventCloseNamespace:
		s.OnCloseNamespace(e.Binding)
	case xsax.EventOpenTag:
		s.OnOpenTag(e.Tag)
	case xsax.EventCloseTag:
		s.OnCloseTag(e.Name)
	case xsax.EventScript:
		s.OnScript(e.Text)
	case xsax.EventError:
		s.OnError(e.Err)
	case xsax.EventEnd:
		s.OnEnd()
	}
}

// printSink renders one line per event. Tag and attribute names repeat
// heavily in real documents, so they go through an interning pool.
func printSink(input string, color bool) xsax.Sink {
	names, _ := intern.New(4096)
	seq := 0
	return xsax.FuncSink(func(e xsax.Event) {
		r := sink.RecordOf(seq, e)
		seq++
		r.Name = names.Get(r.Name)
		kind := r.Kind
		if color {
			switch e.Kind {
			case xsax.EventError:
				kind = "\x1b[31m" + kind + "\x1b[0m"
			case xsax.EventOpenTag, xsax.EventCloseTag:
				kind = "\x1b[36m" + kind + "\x1b[0m"
			}
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", input, kind, r.Name, oneline(r.Text), oneline(r.Value))
	})
}

func oneline(s string) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func printDiag(logger *diag.Log) {
	if v, err := mem.VirtualMemory(); err == nil {
		logger.L(diag.I, "mem used:", humanize.Bytes(v.Used), "of", humanize.Bytes(v.Total))
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		logger.L(diag.I, fmt.Sprintf("cpu: %.1f%%", pct[0]))
	}
}

func writeReport(runID string, summaries []summary) (string, error) {
	var b strings.Builder
	b.WriteString("<!doctype html><meta charset=utf-8><title>xsaxcat report</title>")
	b.WriteString("<h1>xsaxcat run " + runID + "</h1><table border=1 cellpadding=4>")
	b.WriteString("<tr><th>input</th><th>events</th><th>errors</th><th>bytes</th><th>fingerprint</th></tr>")
	for _, s := range summaries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td><code>%s</code></td></tr>",
			s.input, s.events, s.errors, humanize.Bytes(uint64(s.bytes)), s.fingerprint)
	}
	b.WriteString("</table>")
	path := filepath.Join(os.TempDir(), "xsaxcat-"+runID+".html")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
