package xsax

import (
	"github.com/qydysky/xsax/internal/xerrors"
)

// Error action tags, one per violation kind the parser can report.
// Callers use CatchAction(err, ActionUnboundPrefix) to test for a
// specific kind inside a wrapped chain.
const (
	ActionUnencodedLT        = "unencoded-lt"
	ActionMalformedComment   = "malformed-comment"
	ActionInvalidTagName     = "invalid-tag-name-char"
	ActionInvalidAttribName  = "invalid-attrib-name"
	ActionUnquotedAttrib     = "unquoted-attrib-value"
	ActionAttribWithoutValue = "attrib-without-value"
	ActionInvalidEntity      = "invalid-entity"
	ActionTextOutsideRoot    = "text-outside-root"
	ActionMisplacedDoctype   = "misplaced-doctype"
	ActionUnexpectedClose    = "unexpected-close-tag"
	ActionUnmatchedClose     = "unmatched-close-tag"
	ActionUnclosedRoot       = "unclosed-root-tag"
	ActionWeirdEmptyClose    = "weird-empty-close-tag"
	ActionForwardSlash       = "forward-slash-in-open-tag"
	ActionUnboundPrefix      = "unbound-namespace-prefix"
	ActionXMLPrefixRebind    = "xml-prefix-rebind"
	ActionXMLNSPrefixRebind  = "xmlns-prefix-rebind"
	ActionMaxBuffer          = "max-buffer-length"
	ActionWriteAfterClose    = "write-after-close"
	ActionUnexpectedEnd      = "unexpected-end"
)

// Parser is a single streaming XML lexer/event-source instance. It is
// not safe for concurrent use; a caller must serialise Write calls.
type Parser struct {
	opts     Options
	sink     Sink
	entities *entityResolver
	bufs     *bufferSet

	st       state
	prevChar rune // previousChar: the opening quote of the region currently being scanned

	pos         position
	startTagPos position
	skippedBOM  bool

	err        error
	closed     bool
	ended      bool // latched by End, cleared by the next Write: End on an already-ended parser is a no-op
	sawRoot    bool
	closedRoot bool

	stack tagStack
	stage []Attribute // attribute staging list, namespace mode only
	cur   *Tag        // tag currently being opened

	scriptTagMode bool // currently inside a non-strict <script> raw-content block
}

// NewParser constructs a Parser with opts applied over the zero value.
func NewParser(sink Sink, opts ...Option) *Parser {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	p := &Parser{
		opts:     o,
		sink:     sink,
		entities: newEntityResolverWithExtras(o),
		bufs:     newBufferSet(o.maxBuf()),
		pos:      newPosition(),
	}
	if sink != nil {
		sink.OnReady()
	}
	return p
}

func newEntityResolverWithExtras(o Options) *entityResolver {
	r := newEntityResolver(o.StrictEntities)
	if len(o.ExtraEntities) == 0 {
		return r
	}
	merged := make(map[string]string, len(r.table)+len(o.ExtraEntities))
	for k, v := range r.table {
		merged[k] = v
	}
	for k, v := range o.ExtraEntities {
		merged[k] = v
	}
	return &entityResolver{table: merged}
}

// Err returns the latched error, if any.
func (p *Parser) Err() error { return p.err }

// Snapshot is a read-only diagnostic view of the parse in flight.
type Snapshot struct {
	Line, Column int
	Offset       int64
	Error        error
	OpenTags     []string
	State        string
}

func (p *Parser) Snapshot() Snapshot {
	return Snapshot{
		Line:     p.pos.line,
		Column:   p.pos.column,
		Offset:   p.pos.offset,
		Error:    p.err,
		OpenTags: p.stack.names(),
		State:    p.st.String(),
	}
}

// fail reports a violation. In strict mode the first violation
// latches and further writes fail until Resume; in non-strict mode the
// error event still reaches the sink but parsing continues, so fail
// only sets p.err when strict (or when fatal is true, e.g.
// max-buffer-length, which latches regardless of strictness).
func (p *Parser) fail(reason, action string, fatal bool) {
	e := xerrors.New(reason, action)
	if p.opts.TrackPosition {
		e = xerrors.WithPos(e, p.pos.String())
	}
	if (p.opts.Strict || fatal) && p.err == nil {
		p.err = e
	}
	if p.sink != nil {
		p.sink.OnError(e)
	}
}

func (p *Parser) emitText() {
	buf := p.bufs.get(bufTextNode)
	if buf.len() == 0 {
		return
	}
	text := buf.String()
	text = p.finishText(text)
	buf.reset()
	if text == "" {
		return
	}
	if p.sink != nil {
		p.sink.OnText(text)
	}
}

func (p *Parser) finishText(text string) string {
	if p.opts.Trim {
		text = trimASCIISpace(text)
	}
	if p.opts.Normalize {
		text = collapseWhitespace(text)
	}
	return text
}

func trimASCIISpace(s string) string {
	i, j := 0, len(s)
	for i < j && whitespace(rune(s[i])) {
		i++
	}
	for j > i && whitespace(rune(s[j-1])) {
		j--
	}
	return s[i:j]
}

// resetTransient restores the Parser for a fresh document; only opts
// survive.
func (p *Parser) resetTransient() {
	p.entities = newEntityResolverWithExtras(p.opts)
	p.bufs = newBufferSet(p.opts.maxBuf())
	p.st = Begin
	p.prevChar = 0
	p.pos = newPosition()
	p.skippedBOM = false
	p.err = nil
	p.closed = false
	p.sawRoot = false
	p.closedRoot = false
	p.stack = tagStack{}
	p.stage = nil
	p.cur = nil
	p.scriptTagMode = false
	if p.sink != nil {
		p.sink.OnReady()
	}
}
