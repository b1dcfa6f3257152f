package xsax

const bom = '\uFEFF'

// step dispatches one character to the state handler for p.st. Every
// XML lexical construct is recognised by a transition out of one of
// the 36 states.
func (p *Parser) step(c rune) {
	switch p.st {
	case Begin:
		p.stepBegin(c)
	case BeginWhitespace:
		p.stepBeginWhitespace(c)
	case Text:
		p.stepText(c)
	case TextEntity:
		p.stepTextEntity(c)
	case OpenWaka:
		p.stepOpenWaka(c)
	case SgmlDecl:
		p.stepSgmlDecl(c)
	case SgmlDeclQuoted:
		p.stepSgmlDeclQuoted(c)
	case DocType:
		p.stepDocType(c)
	case DocTypeQuoted:
		p.stepDocTypeQuoted(c)
	case DocTypeDTD:
		p.stepDocTypeDTD(c)
	case DocTypeDTDQuoted:
		p.stepDocTypeDTDQuoted(c)
	case CommentStarting:
		p.stepCommentStarting(c)
	case Comment:
		p.stepComment(c)
	case CommentEnding:
		p.stepCommentEnding(c)
	case CommentEnded:
		p.stepCommentEnded(c)
	case CData:
		p.stepCData(c)
	case CDataEnding:
		p.stepCDataEnding(c)
	case CDataEnding2:
		p.stepCDataEnding2(c)
	case ProcInst:
		p.stepProcInst(c)
	case ProcInstBody:
		p.stepProcInstBody(c)
	case ProcInstEnding:
		p.stepProcInstEnding(c)
	case OpenTag:
		p.stepOpenTag(c)
	case OpenTagSlash:
		p.stepOpenTagSlash(c)
	case Attrib:
		p.stepAttrib(c)
	case AttribName:
		p.stepAttribName(c)
	case AttribNameSawWhite:
		p.stepAttribNameSawWhite(c)
	case AttribValue:
		p.stepAttribValue(c)
	case AttribValueQuoted:
		p.stepAttribValueQuoted(c)
	case AttribValueClosed:
		p.stepAttribValueClosed(c)
	case AttribValueUnquoted:
		p.stepAttribValueUnquoted(c)
	case AttribValueEntityQ:
		p.stepAttribValueEntityQ(c)
	case AttribValueEntityU:
		p.stepAttribValueEntityU(c)
	case CloseTag:
		p.stepCloseTag(c)
	case CloseTagSawWhite:
		p.stepCloseTagSawWhite(c)
	case Script:
		p.stepScript(c)
	case ScriptEnding:
		p.stepScriptEnding(c)
	}
}

func (p *Parser) stepBegin(c rune) {
	p.st = BeginWhitespace
	if c == bom && !p.skippedBOM {
		p.skippedBOM = true
		return
	}
	p.stepBeginWhitespace(c)
}

func (p *Parser) stepBeginWhitespace(c rune) {
	if whitespace(c) {
		return
	}
	if c == '<' {
		p.st = OpenWaka
		p.startTagPos = p.pos
		return
	}
	p.fail("Non-whitespace before first tag", ActionTextOutsideRoot, false)
	p.bufs.get(bufTextNode).append(c)
	p.st = Text
}

func (p *Parser) stepText(c rune) {
	switch c {
	case '<':
		if p.closedRoot && !p.opts.Strict {
			// A stray '<' past the root's close is just literal text
			// in non-strict mode, not the start of a new element.
			p.bufs.get(bufTextNode).append(c)
			return
		}
		p.st = OpenWaka
		p.startTagPos = p.pos
	case '&':
		p.st = TextEntity
	default:
		if (!p.sawRoot || p.closedRoot) && !whitespace(c) {
			p.fail("Text data outside of root node", ActionTextOutsideRoot, false)
		}
		p.bufs.get(bufTextNode).append(c)
	}
}

func (p *Parser) stepTextEntity(c rune) {
	p.stepGenericEntity(c, bufTextNode, Text)
}

// stepGenericEntity implements the shared "&name;" accumulation used
// by Text and both attribute-value entity states: accumulate into the
// entity buffer until ';', then resolve and append the expansion to
// dest, returning to back.
func (p *Parser) stepGenericEntity(c rune, dest bufferKind, back state) {
	entBuf := p.bufs.get(bufEntity)
	if c == ';' {
		name := entBuf.String()
		entBuf.reset()
		expansion, ok := p.entities.resolve(name)
		if !ok {
			p.fail("Invalid character entity", ActionInvalidEntity, false)
		}
		p.bufs.get(dest).appendString(expansion)
		p.st = back
		return
	}
	if entityBody(c) || entBuf.len() == 0 && entityStart(c) {
		entBuf.append(c)
		return
	}
	// Not a well-formed entity body: bail out the same way an unknown
	// entity does, emitting the literal text consumed so far.
	p.fail("Invalid character entity", ActionInvalidEntity, false)
	p.bufs.get(dest).append('&')
	p.bufs.get(dest).appendString(entBuf.String())
	entBuf.reset()
	p.st = back
	p.step(c)
}

func (p *Parser) stepOpenWaka(c rune) {
	switch {
	case c == '!':
		p.st = SgmlDecl
		p.bufs.get(bufSgmlDecl).reset()
	case nameStart(c):
		p.st = OpenTag
		p.bufs.get(bufTagName).reset()
		p.bufs.get(bufTagName).append(c)
	case c == '/':
		p.st = CloseTag
		p.bufs.get(bufTagName).reset()
	case c == '?':
		p.st = ProcInst
		p.bufs.get(bufProcInstName).reset()
		p.bufs.get(bufProcInstBody).reset()
	case whitespace(c):
		// stay in OpenWaka until something meaningful shows up
	default:
		p.fail("Unencoded <", ActionUnencodedLT, false)
		text := p.bufs.get(bufTextNode)
		text.append('<')
		for i := int64(0); i < p.pos.offset-p.startTagPos.offset-1; i++ {
			text.append(' ')
		}
		p.st = Text
		p.step(c)
	}
}
