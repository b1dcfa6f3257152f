// Package sink supplies event consumers for the parser: an in-process
// collector, durable stores (sqlite, postgres), and a websocket hub
// for live viewers. The parser core only knows the Sink interface;
// everything here sits on the far side of it.
package sink

import (
	"strconv"

	xsax "github.com/qydysky/xsax"
	"github.com/qydysky/xsax/internal/fingerprint"
)

// Collect buffers every event in order. The tagged-union Event shape
// makes one switch statement enough to inspect a whole parse, which is
// also why the package's own tests drive parsers through it.
type Collect struct {
	Events []xsax.Event

	digest *fingerprint.Digest
}

// NewCollect returns a Collect that also fingerprints the stream.
func NewCollect() *Collect {
	return &Collect{digest: fingerprint.New()}
}

// Sink adapts c into the parser's event interface.
func (c *Collect) Sink() xsax.Sink {
	return xsax.FuncSink(func(e xsax.Event) {
		if c.digest != nil {
			r := RecordOf(len(c.Events), e)
			c.digest.Add(int(e.Kind), r.Name, r.Text, r.Value, r.Prefix, r.Local, r.URI, r.Err)
		}
		c.Events = append(c.Events, e)
	})
}

// Fingerprint is the content hash of everything collected so far; two
// parses that emitted identical event sequences share it.
func (c *Collect) Fingerprint() string {
	if c.digest == nil {
		return ""
	}
	return c.digest.Sum()
}

// Kinds returns the ordered event kinds, handy for terse test asserts.
func (c *Collect) Kinds() []xsax.EventKind {
	out := make([]xsax.EventKind, len(c.Events))
	for i, e := range c.Events {
		out[i] = e.Kind
	}
	return out
}

// Record is the flat row shape shared by every durable sink: one row
// per emitted event, with only the fields that event kind populates.
type Record struct {
	Seq    int
	Kind   string
	Name   string
	Text   string
	Value  string
	Prefix string
	Local  string
	URI    string
	Err    string
}

func RecordOf(seq int, e xsax.Event) Record {
	r := Record{Seq: seq, Kind: kindName(e.Kind)}
	switch e.Kind {
	case xsax.EventText, xsax.EventDoctype, xsax.EventSGMLDeclaration,
		xsax.EventCData, xsax.EventComment, xsax.EventScript:
		r.Text = e.Text
	case xsax.EventProcessingInstruction:
		r.Name = e.Name
		r.Text = e.Body
	case xsax.EventOpenTagStart, xsax.EventCloseTag:
		r.Name = e.Name
	case xsax.EventAttribute:
		r.Name = e.Attribute.Name
		r.Value = e.Attribute.Value
		r.Prefix = e.Attribute.Prefix
		r.Local = e.Attribute.Local
		r.URI = e.Attribute.URI
	case xsax.EventOpenNamespace, xsax.EventCloseNamespace:
		r.Prefix = e.Binding.Prefix
		r.URI = e.Binding.URI
	case xsax.EventOpenTag:
		if e.Tag != nil {
			r.Name = e.Tag.Name
			r.Prefix = e.Tag.Prefix
			r.Local = e.Tag.Local
			r.URI = e.Tag.URI
			r.Value = strconv.FormatBool(e.Tag.SelfClosing)
		}
	case xsax.EventError:
		if e.Err != nil {
			r.Err = e.Err.Error()
		}
	}
	return r
}

func kindName(k xsax.EventKind) string {
	switch k {
	case xsax.EventReady:
		return "ready"
	case xsax.EventText:
		return "text"
	case xsax.EventDoctype:
		return "doctype"
	case xsax.EventProcessingInstruction:
		return "processinginstruction"
	case xsax.EventSGMLDeclaration:
		return "sgmldeclaration"
	case xsax.EventOpenCData:
		return "opencdata"
	case xsax.EventCData:
		return "cdata"
	case xsax.EventCloseCData:
		return "closecdata"
	case xsax.EventComment:
		return "comment"
	case xsax.EventOpenTagStart:
		return "opentagstart"
	case xsax.EventAttribute:
		return "attribute"
	case xsax.EventOpenNamespace:
		return "opennamespace"
	case xsax.EventCloseNamespace:
		return "closenamespace"
	case xsax.EventOpenTag:
		return "opentag"
	case xsax.EventCloseTag:
		return "closetag"
	case xsax.EventScript:
		return "script"
	case xsax.EventError:
		return "error"
	case xsax.EventEnd:
		return "end"
	default:
		return "unknown"
	}
}
