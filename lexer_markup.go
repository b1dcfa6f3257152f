package xsax

// stepSgmlDecl handles the `<!...` branch: it accumulates into
// sgmlDecl and watches the running (case-insensitively compared, for
// the two keyword triggers) text for "[CDATA[", "--", and "DOCTYPE".
func (p *Parser) stepSgmlDecl(c rune) {
	buf := p.bufs.get(bufSgmlDecl)
	tentative := buf.String() + string(c)
	switch {
	case toUpperASCII(tentative) == "[CDATA[":
		p.emitText()
		if p.sink != nil {
			p.sink.OnOpenCData()
		}
		buf.reset()
		p.bufs.get(bufCData).reset()
		p.st = CData
	case tentative == "--":
		buf.reset()
		p.bufs.get(bufComment).reset()
		p.st = CommentStarting
	case toUpperASCII(tentative) == "DOCTYPE":
		if p.bufs.doctypeSeen || p.sawRoot {
			p.fail("Inappropriately located doctype declaration", ActionMisplacedDoctype, false)
		}
		buf.reset()
		p.bufs.get(bufDoctype).reset()
		p.st = DocType
	case c == '>':
		p.emitText()
		if p.sink != nil {
			p.sink.OnSGMLDeclaration(buf.String())
		}
		buf.reset()
		p.st = Text
	case quote(c):
		buf.append(c)
		p.prevChar = c
		p.st = SgmlDeclQuoted
	default:
		buf.append(c)
	}
}

func (p *Parser) stepSgmlDeclQuoted(c rune) {
	buf := p.bufs.get(bufSgmlDecl)
	buf.append(c)
	if c == p.prevChar {
		p.prevChar = 0
		p.st = SgmlDecl
	}
}

func (p *Parser) stepDocType(c rune) {
	buf := p.bufs.get(bufDoctype)
	switch {
	case c == '>':
		if p.sink != nil {
			p.sink.OnDoctype(buf.String())
		}
		p.bufs.doctypeSeen = true
		buf.reset()
		p.st = Text
	case quote(c):
		buf.append(c)
		p.prevChar = c
		p.st = DocTypeQuoted
	case c == '[':
		buf.append(c)
		p.st = DocTypeDTD
	default:
		buf.append(c)
	}
}

func (p *Parser) stepDocTypeQuoted(c rune) {
	p.bufs.get(bufDoctype).append(c)
	if c == p.prevChar {
		p.prevChar = 0
		p.st = DocType
	}
}

func (p *Parser) stepDocTypeDTD(c rune) {
	buf := p.bufs.get(bufDoctype)
	buf.append(c)
	switch {
	case c == ']':
		p.st = DocType
	case quote(c):
		p.prevChar = c
		p.st = DocTypeDTDQuoted
	}
}

func (p *Parser) stepDocTypeDTDQuoted(c rune) {
	p.bufs.get(bufDoctype).append(c)
	if c == p.prevChar {
		p.prevChar = 0
		p.st = DocTypeDTD
	}
}

func (p *Parser) stepCommentStarting(c rune) {
	if c == '-' {
		p.st = CommentEnding
		return
	}
	p.st = Comment
	p.step(c)
}

func (p *Parser) stepComment(c rune) {
	if c == '-' {
		p.st = CommentEnding
		return
	}
	p.bufs.get(bufComment).append(c)
}

func (p *Parser) stepCommentEnding(c rune) {
	if c == '-' {
		p.st = CommentEnded
		return
	}
	buf := p.bufs.get(bufComment)
	buf.append('-')
	buf.append(c)
	p.st = Comment
}

func (p *Parser) stepCommentEnded(c rune) {
	buf := p.bufs.get(bufComment)
	if c != '>' {
		p.fail("Malformed comment", ActionMalformedComment, false)
		buf.appendString("--")
		buf.append(c)
		p.st = Comment
		return
	}
	text := buf.String()
	if p.opts.Trim {
		text = trimASCIISpace(text)
	}
	if p.opts.Normalize {
		text = collapseWhitespace(text)
	}
	if p.sink != nil {
		p.sink.OnComment(text)
	}
	buf.reset()
	p.st = Text
}

func (p *Parser) stepCData(c rune) {
	if c == ']' {
		p.st = CDataEnding
		return
	}
	p.bufs.get(bufCData).append(c)
}

func (p *Parser) stepCDataEnding(c rune) {
	if c == ']' {
		p.st = CDataEnding2
		return
	}
	buf := p.bufs.get(bufCData)
	buf.append(']')
	buf.append(c)
	p.st = CData
}

func (p *Parser) stepCDataEnding2(c rune) {
	switch c {
	case ']':
		p.bufs.get(bufCData).append(']')
	case '>':
		p.flushCData()
		if p.sink != nil {
			p.sink.OnCloseCData()
		}
		p.st = Text
	default:
		buf := p.bufs.get(bufCData)
		buf.appendString("]]")
		buf.append(c)
		p.st = CData
	}
}

func (p *Parser) stepProcInst(c rune) {
	switch {
	case c == '?':
		p.st = ProcInstEnding
	case whitespace(c):
		p.st = ProcInstBody
	default:
		p.bufs.get(bufProcInstName).append(c)
	}
}

func (p *Parser) stepProcInstBody(c rune) {
	body := p.bufs.get(bufProcInstBody)
	if body.len() == 0 && whitespace(c) {
		return
	}
	if c == '?' {
		p.st = ProcInstEnding
		return
	}
	body.append(c)
}

func (p *Parser) stepProcInstEnding(c rune) {
	if c == '>' {
		p.emitText()
		if p.sink != nil {
			p.sink.OnProcessingInstruction(p.bufs.get(bufProcInstName).String(), p.bufs.get(bufProcInstBody).String())
		}
		p.bufs.get(bufProcInstName).reset()
		p.bufs.get(bufProcInstBody).reset()
		p.st = Text
		return
	}
	p.bufs.get(bufProcInstBody).append('?')
	p.bufs.get(bufProcInstBody).append(c)
	p.st = ProcInstBody
}

func (p *Parser) stepScript(c rune) {
	if c == '<' {
		p.st = ScriptEnding
		return
	}
	p.bufs.get(bufScript).append(c)
}

func (p *Parser) stepScriptEnding(c rune) {
	if c == '/' {
		p.bufs.get(bufTagName).reset()
		p.st = CloseTag
		return
	}
	buf := p.bufs.get(bufScript)
	buf.append('<')
	buf.append(c)
	p.st = Script
}
