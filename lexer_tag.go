package xsax

// splitQName splits a (possibly prefixed) name on its first ':'.
func splitQName(name string) (prefix, local string) {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// ---- OpenTag / Attrib family ----

func (p *Parser) stepOpenTag(c rune) {
	if nameBody(c) {
		p.bufs.get(bufTagName).append(c)
		return
	}
	p.newTag()
	switch {
	case c == '>':
		p.openTag(false)
	case c == '/':
		p.st = OpenTagSlash
	case whitespace(c):
		p.st = Attrib
	default:
		p.fail("Invalid character in tag name", ActionInvalidTagName, false)
		p.st = Attrib
	}
}

// newTag stages a fresh Tag once the open-tag name is complete.
func (p *Parser) newTag() {
	name := p.bufs.get(bufTagName).String()
	name = p.opts.casefold(name)
	parentNS := rootNS()
	if parent := p.stack.top(); parent != nil {
		parentNS = parent.NS
	}
	p.cur = newTag(name, parentNS)
	p.stage = p.stage[:0]
	p.emitText()
	if p.sink != nil {
		p.sink.OnOpenTagStart(name)
	}
}

func (p *Parser) stepOpenTagSlash(c rune) {
	if c == '>' {
		p.openTag(true)
		p.closeSelfClosing()
		return
	}
	p.fail("Forward-slash in opening tag not followed by >", ActionForwardSlash, false)
	p.st = Attrib
	p.stepAttrib(c)
}

func (p *Parser) stepAttrib(c rune) {
	if whitespace(c) {
		return
	}
	switch {
	case c == '>':
		p.openTag(false)
	case c == '/':
		p.st = OpenTagSlash
	case nameStart(c):
		p.bufs.get(bufAttribName).reset()
		p.bufs.get(bufAttribName).append(c)
		p.bufs.get(bufAttribValue).reset()
		p.st = AttribName
	default:
		p.fail("Invalid attribute name", ActionInvalidAttribName, false)
	}
}

func (p *Parser) stepAttribName(c rune) {
	switch {
	case c == '=':
		p.st = AttribValue
	case c == '>':
		p.fail("Attribute without value", ActionAttribWithoutValue, false)
		name := p.bufs.get(bufAttribName).String()
		p.commitAttribute(name, name)
		p.resetAttribScratch()
		p.openTag(false)
	case whitespace(c):
		p.st = AttribNameSawWhite
	case nameBody(c):
		p.bufs.get(bufAttribName).append(c)
	default:
		p.fail("Invalid attribute name", ActionInvalidAttribName, false)
	}
}

func (p *Parser) stepAttribNameSawWhite(c rune) {
	switch {
	case c == '=':
		p.st = AttribValue
	case whitespace(c):
	case c == '>':
		p.fail("Attribute without value", ActionAttribWithoutValue, false)
		name := p.bufs.get(bufAttribName).String()
		p.commitAttribute(name, name)
		p.resetAttribScratch()
		p.openTag(false)
	case nameStart(c):
		name := p.bufs.get(bufAttribName).String()
		p.commitAttribute(name, "")
		p.bufs.get(bufAttribName).reset()
		p.bufs.get(bufAttribName).append(c)
		p.bufs.get(bufAttribValue).reset()
		p.st = AttribName
	default:
		p.fail("Invalid attribute name", ActionInvalidAttribName, false)
		p.st = Attrib
	}
}

func (p *Parser) stepAttribValue(c rune) {
	switch {
	case whitespace(c):
	case quote(c):
		p.prevChar = c
		p.bufs.get(bufAttribValue).reset()
		p.st = AttribValueQuoted
	default:
		p.fail("Unquoted attribute value", ActionUnquotedAttrib, false)
		p.bufs.get(bufAttribValue).reset()
		p.bufs.get(bufAttribValue).append(c)
		p.st = AttribValueUnquoted
	}
}

func (p *Parser) stepAttribValueQuoted(c rune) {
	if c == p.prevChar {
		name := p.bufs.get(bufAttribName).String()
		value := p.bufs.get(bufAttribValue).String()
		p.commitAttribute(name, value)
		p.resetAttribScratch()
		p.prevChar = 0
		p.st = AttribValueClosed
		return
	}
	if c == '&' {
		p.st = AttribValueEntityQ
		return
	}
	p.bufs.get(bufAttribValue).append(c)
}

func (p *Parser) stepAttribValueClosed(c rune) {
	switch {
	case whitespace(c):
		p.st = Attrib
	case c == '>':
		p.openTag(false)
	case c == '/':
		p.st = OpenTagSlash
	case nameStart(c):
		p.fail("No whitespace between attributes", ActionInvalidAttribName, false)
		p.bufs.get(bufAttribName).reset()
		p.bufs.get(bufAttribName).append(c)
		p.bufs.get(bufAttribValue).reset()
		p.st = AttribName
	default:
		p.fail("Invalid attribute name", ActionInvalidAttribName, false)
	}
}

func (p *Parser) stepAttribValueUnquoted(c rune) {
	if attribEnd(c) {
		name := p.bufs.get(bufAttribName).String()
		value := p.bufs.get(bufAttribValue).String()
		p.commitAttribute(name, value)
		p.resetAttribScratch()
		if c == '>' {
			p.openTag(false)
		} else {
			p.st = Attrib
		}
		return
	}
	if c == '&' {
		p.st = AttribValueEntityU
		return
	}
	p.bufs.get(bufAttribValue).append(c)
}

func (p *Parser) stepAttribValueEntityQ(c rune) {
	p.stepGenericEntity(c, bufAttribValue, AttribValueQuoted)
}

func (p *Parser) stepAttribValueEntityU(c rune) {
	p.stepGenericEntity(c, bufAttribValue, AttribValueUnquoted)
}

func (p *Parser) resetAttribScratch() {
	p.bufs.get(bufAttribName).reset()
	p.bufs.get(bufAttribValue).reset()
}

// isDuplicateAttrib reports whether name was already seen on the
// current tag: staging-list membership in namespace mode, committed
// attribute map otherwise.
func (p *Parser) isDuplicateAttrib(name string) bool {
	if p.opts.XMLNS {
		for _, a := range p.stage {
			if a.Name == name {
				return true
			}
		}
		return false
	}
	return p.cur.hasAttribute(name)
}

// commitAttribute finishes one attribute: normalise the name, detect
// namespace bindings, stage (namespace mode) or emit immediately
// (plain mode). Duplicates are silently discarded.
func (p *Parser) commitAttribute(name, value string) {
	name = p.opts.casefold(name)
	if p.isDuplicateAttrib(name) {
		return
	}
	if !p.opts.XMLNS {
		p.cur.setAttribute(Attribute{Name: name, Value: value})
		p.emitText()
		if p.sink != nil {
			p.sink.OnAttribute(Attribute{Name: name, Value: value})
		}
		return
	}
	prefix, local := splitQName(name)
	if name == "xmlns" {
		prefix, local = "xmlns", ""
	}
	if prefix == "xmlns" {
		if local == "xml" && value != xmlNamespaceURI {
			p.fail("xml namespace prefix may only be bound to "+xmlNamespaceURI, ActionXMLPrefixRebind, false)
		} else if local == "xmlns" && value != xmlnsNamespaceURI {
			p.fail("xmlns namespace prefix may only be bound to "+xmlnsNamespaceURI, ActionXMLNSPrefixRebind, false)
		}
		p.cur.bindNamespace(local, value)
	}
	p.stage = append(p.stage, Attribute{Name: name, Value: value})
}

// openTag completes the element start: qualify the tag, emit pending
// namespace bindings, resolve and emit staged attributes, push onto
// the open-tag stack, and emit opentag.
func (p *Parser) openTag(selfClosing bool) {
	t := p.cur
	t.SelfClosing = selfClosing

	if p.opts.XMLNS {
		prefix, local := splitQName(t.Name)
		t.Prefix, t.Local = prefix, local
		if prefix != "" {
			if uri, ok := t.NS[prefix]; ok {
				t.URI = uri
			} else {
				p.fail("Unbound namespace prefix: "+prefix, ActionUnboundPrefix, false)
				t.URI = prefix
			}
		} else {
			t.URI = t.NS[""]
		}

		if t.nsOwned {
			for _, b := range t.ownBindings {
				if p.sink != nil {
					p.sink.OnOpenNamespace(b)
				}
			}
		}

		for _, staged := range p.stage {
			aPrefix, aLocal := splitQName(staged.Name)
			if staged.Name == "xmlns" {
				aPrefix, aLocal = "xmlns", ""
			}
			a := Attribute{Name: staged.Name, Value: staged.Value, Prefix: aPrefix, Local: aLocal}
			switch {
			case aPrefix == "":
				a.URI = "" // attributes never receive the default namespace
			case aPrefix == "xmlns":
				a.URI = xmlnsNamespaceURI
			default:
				if uri, ok := t.NS[aPrefix]; ok {
					a.URI = uri
				} else {
					p.fail("Unbound namespace prefix: "+aPrefix, ActionUnboundPrefix, false)
					a.URI = aPrefix
				}
			}
			t.setAttribute(a)
			if p.sink != nil {
				p.sink.OnAttribute(a)
			}
		}
		p.stage = nil
	}

	p.stack.push(t)
	p.sawRoot = true
	p.emitText()
	if p.sink != nil {
		p.sink.OnOpenTag(t)
	}

	if !selfClosing {
		if !p.opts.Strict && !p.opts.NoScript && toLowerASCII(t.Name) == "script" {
			p.scriptTagMode = true
			p.st = Script
		} else {
			p.st = Text
		}
	}
	p.cur = nil
	p.bufs.get(bufTagName).reset()
}

// closeSelfClosing pops the tag openTag(true) just pushed, without
// going through the name-matching search a lexical "</name>" needs.
func (p *Parser) closeSelfClosing() {
	t := p.stack.top()
	if t == nil {
		return
	}
	p.closeOne(t)
	p.st = Text
}

// closeOne pops t (already confirmed to be on top) and emits its
// closetag/closenamespace events.
func (p *Parser) closeOne(t *Tag) {
	p.stack.popN(1)
	p.emitText()
	if p.sink != nil {
		p.sink.OnCloseTag(t.Name)
	}
	if t.nsOwned {
		for i := len(t.ownBindings) - 1; i >= 0; i-- {
			if p.sink != nil {
				p.sink.OnCloseNamespace(t.ownBindings[i])
			}
		}
	}
	if p.stack.empty() {
		p.closedRoot = true
	}
}

// ---- CloseTag family ----

func (p *Parser) stepCloseTag(c rune) {
	switch {
	case c == '>':
		p.handleCloseTagName(p.bufs.get(bufTagName).String())
		p.bufs.get(bufTagName).reset()
	case whitespace(c):
		p.st = CloseTagSawWhite
	default:
		p.bufs.get(bufTagName).append(c)
	}
}

func (p *Parser) stepCloseTagSawWhite(c rune) {
	if whitespace(c) {
		return
	}
	if c == '>' {
		p.handleCloseTagName(p.bufs.get(bufTagName).String())
		p.bufs.get(bufTagName).reset()
		return
	}
	p.fail("Invalid characters in closing tag", ActionWeirdEmptyClose, false)
}

// handleCloseTagName matches a lexical "</name>" against the open-tag
// stack, recovering from mismatches in non-strict mode.
func (p *Parser) handleCloseTagName(rawName string) {
	name := p.opts.casefold(rawName)

	if name == "" {
		p.fail("Weird empty close tag", ActionWeirdEmptyClose, false)
		p.bufs.get(bufTextNode).appendString("</>")
		p.st = Text
		return
	}

	if p.scriptTagMode && toLowerASCII(name) != "script" {
		buf := p.bufs.get(bufScript)
		buf.appendString("</")
		buf.appendString(rawName)
		buf.append('>')
		p.st = Script
		return
	}
	if p.scriptTagMode && toLowerASCII(name) == "script" {
		p.scriptTagMode = false
		p.flushScript()
	}

	idx := p.stack.findFromTop(name)
	if idx < 0 {
		// The search walked the whole stack without a hit: every entry
		// was an intervening mismatch.
		for range p.stack.tags {
			p.fail("Unexpected close tag", ActionUnexpectedClose, false)
		}
		p.fail("Unmatched closing tag: "+name, ActionUnmatchedClose, false)
		buf := p.bufs.get(bufTextNode)
		buf.appendString("</")
		buf.appendString(rawName)
		buf.append('>')
		p.st = Text
		return
	}
	for i := 0; i < idx; i++ {
		p.fail("Unexpected close tag", ActionUnexpectedClose, false)
	}
	popped := p.stack.popN(idx + 1)
	for _, t := range popped {
		p.emitText()
		if p.sink != nil {
			p.sink.OnCloseTag(t.Name)
		}
		if t.nsOwned {
			for i := len(t.ownBindings) - 1; i >= 0; i-- {
				if p.sink != nil {
					p.sink.OnCloseNamespace(t.ownBindings[i])
				}
			}
		}
	}
	if p.stack.empty() {
		p.closedRoot = true
	}
	p.st = Text
}
