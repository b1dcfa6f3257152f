package xsax

import "github.com/qydysky/xsax/internal/xerrors"

// Write feeds one chunk of already-decoded text into the parser; any
// chunking of the same input produces the same event sequence. An
// empty chunk is equivalent to End.
func (p *Parser) Write(chunk string) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		p.fail("Cannot write after close", ActionWriteAfterClose, true)
		return p.err
	}
	if chunk == "" {
		return p.End()
	}
	p.ended = false
	for _, r := range chunk {
		if p.err != nil {
			return p.err
		}
		p.consume(r)
		if over := p.bufs.check(p.pos.offset); over != nil {
			p.runWatchdog(over)
		}
	}
	return p.err
}

// consume advances position (if enabled) then dispatches one character
// to the lexer state machine.
func (p *Parser) consume(r rune) {
	if p.opts.TrackPosition {
		p.pos.advance(r)
	} else {
		p.pos.offset++
	}
	p.step(r)
}

func (p *Parser) runWatchdog(over []bufferKind) {
	for _, kind := range over {
		switch kind {
		case bufTextNode:
			p.emitText()
		case bufCData:
			p.flushCData()
		case bufScript:
			p.flushScript()
		default:
			p.fail("Max buffer length exceeded: "+kind.String(), ActionMaxBuffer, true)
			return
		}
	}
}

func (p *Parser) flushCData() {
	buf := p.bufs.get(bufCData)
	if buf.len() == 0 {
		return
	}
	text := buf.String()
	buf.reset()
	if p.sink != nil {
		p.sink.OnCData(text)
	}
}

func (p *Parser) flushScript() {
	buf := p.bufs.get(bufScript)
	if buf.len() == 0 {
		return
	}
	text := buf.String()
	buf.reset()
	if p.sink != nil {
		p.sink.OnScript(text)
	}
}

// Flush force-emits any buffered text, cdata, or script.
func (p *Parser) Flush() {
	p.emitText()
	p.flushCData()
	p.flushScript()
}

// End finishes the current document: validates that it's safe to stop,
// flushes remaining text, emits end, and resets all transient state so
// the Parser can be reused.
func (p *Parser) End() error {
	if p.closed || p.ended {
		return nil
	}
	if p.sawRoot && !p.closedRoot {
		p.fail("Unclosed root tag", ActionUnclosedRoot, false)
	}
	switch p.st {
	case Begin, BeginWhitespace, Text:
	default:
		p.fail("Unexpected end", ActionUnexpectedEnd, false)
	}
	p.emitText()
	p.closed = true
	if p.sink != nil {
		p.sink.OnEnd()
	}
	p.resetTransient()
	p.ended = true
	return nil
}

// Close finishes the document the same way End does.
func (p *Parser) Close() error {
	return p.End()
}

// Resume clears the latched error, permitting further writes.
func (p *Parser) Resume() *Parser {
	p.err = nil
	return p
}

// CatchAction reports whether any link in err's chain (typically the
// Parser's latched error or one reported via the sink) carries action.
// It is a thin wrapper over xerrors.Catch, which code outside this
// module cannot import.
func CatchAction(err error, action string) bool {
	return xerrors.Catch(err, action)
}
