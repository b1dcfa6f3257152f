package xsax

import (
	"fmt"
	"strings"
	"testing"
)

type eventLog struct {
	events []Event
}

func (l *eventLog) sink() Sink {
	return FuncSink(func(e Event) { l.events = append(l.events, e) })
}

// describe flattens the log into comparable strings, dropping ready
// events (they fire at construction and after every reset).
func (l *eventLog) describe() []string {
	var out []string
	for _, e := range l.events {
		switch e.Kind {
		case EventReady:
		case EventText:
			out = append(out, "text("+e.Text+")")
		case EventDoctype:
			out = append(out, "doctype("+e.Text+")")
		case EventProcessingInstruction:
			out = append(out, "pi("+e.Name+"|"+e.Body+")")
		case EventSGMLDeclaration:
			out = append(out, "sgmldecl("+e.Text+")")
		case EventOpenCData:
			out = append(out, "opencdata")
		case EventCData:
			out = append(out, "cdata("+e.Text+")")
		case EventCloseCData:
			out = append(out, "closecdata")
		case EventComment:
			out = append(out, "comment("+e.Text+")")
		case EventOpenTagStart:
			out = append(out, "opentagstart("+e.Name+")")
		case EventAttribute:
			a := e.Attribute
			if a.URI != "" || a.Prefix != "" {
				out = append(out, fmt.Sprintf("attribute(%s=%s prefix=%s local=%s uri=%s)", a.Name, a.Value, a.Prefix, a.Local, a.URI))
			} else {
				out = append(out, "attribute("+a.Name+"="+a.Value+")")
			}
		case EventOpenNamespace:
			out = append(out, "opennamespace("+e.Binding.Prefix+"="+e.Binding.URI+")")
		case EventCloseNamespace:
			out = append(out, "closenamespace("+e.Binding.Prefix+"="+e.Binding.URI+")")
		case EventOpenTag:
			s := "opentag(" + e.Tag.Name
			if e.Tag.SelfClosing {
				s += " selfclosing"
			}
			out = append(out, s+")")
		case EventCloseTag:
			out = append(out, "closetag("+e.Name+")")
		case EventScript:
			out = append(out, "script("+e.Text+")")
		case EventError:
			out = append(out, "error("+actionOf(e.Err)+")")
		case EventEnd:
			out = append(out, "end")
		}
	}
	return out
}

func actionOf(err error) string {
	for _, a := range []string{
		ActionUnencodedLT, ActionMalformedComment, ActionInvalidTagName,
		ActionInvalidAttribName, ActionUnquotedAttrib, ActionAttribWithoutValue,
		ActionInvalidEntity, ActionTextOutsideRoot, ActionMisplacedDoctype,
		ActionUnexpectedClose, ActionUnmatchedClose, ActionUnclosedRoot,
		ActionWeirdEmptyClose, ActionForwardSlash, ActionUnboundPrefix,
		ActionXMLPrefixRebind, ActionXMLNSPrefixRebind, ActionMaxBuffer,
		ActionWriteAfterClose, ActionUnexpectedEnd,
	} {
		if CatchAction(err, a) {
			return a
		}
	}
	return "unknown"
}

func parse(t *testing.T, doc string, opts ...Option) *eventLog {
	t.Helper()
	log := &eventLog{}
	p := NewParser(log.sink(), opts...)
	if err := p.Write(doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	return log
}

func wantEvents(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events\ngot:\n  %s\nwant:\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

func TestSelfClosing(t *testing.T) {
	log := parse(t, `<a><b/></a>`, WithStrict(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a)",
		"opentagstart(b)",
		"opentag(b selfclosing)",
		"closetag(b)",
		"closetag(a)",
		"end",
	})
}

func TestDuplicateAttributeIgnored(t *testing.T) {
	log := parse(t, `<a foo="1" foo="2"/>`, WithStrict(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"attribute(foo=1)",
		"opentag(a selfclosing)",
		"closetag(a)",
		"end",
	})
	for _, e := range log.events {
		if e.Kind == EventOpenTag {
			if got := e.Tag.Attributes["foo"].Value; got != "1" {
				t.Fatalf("attributes.foo = %q, want 1", got)
			}
		}
	}
}

func TestNamespaceResolution(t *testing.T) {
	log := parse(t, `<root xmlns:p="urn:x"><p:c/></root>`, WithStrict(true), WithXMLNS(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(root)",
		"opennamespace(p=urn:x)",
		"attribute(xmlns:p=urn:x prefix=xmlns local=p uri=http://www.w3.org/2000/xmlns/)",
		"opentag(root)",
		"opentagstart(p:c)",
		"opentag(p:c selfclosing)",
		"closetag(p:c)",
		"closetag(root)",
		"closenamespace(p=urn:x)",
		"end",
	})
	for _, e := range log.events {
		if e.Kind == EventOpenTag && e.Tag.Name == "p:c" {
			if e.Tag.Prefix != "p" || e.Tag.Local != "c" || e.Tag.URI != "urn:x" {
				t.Fatalf("qualified tag = %+v", e.Tag)
			}
		}
	}
}

func TestEntityExpansion(t *testing.T) {
	log := parse(t, `<a>&amp;&#65;&#x42;</a>`, WithStrict(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a)",
		"text(&AB)",
		"closetag(a)",
		"end",
	})
}

func TestUnknownEntityLoose(t *testing.T) {
	log := parse(t, `<a>one &xyz; two</a>`, WithLowercase(true))
	var text string
	for _, e := range log.events {
		if e.Kind == EventText {
			text = e.Text
		}
	}
	if text != "one &xyz; two" {
		t.Fatalf("text = %q", text)
	}
}

func TestUnknownEntityStrict(t *testing.T) {
	log := &eventLog{}
	p := NewParser(log.sink(), WithStrict(true))
	err := p.Write(`<a>one &xyz; two</a>`)
	if err == nil || !CatchAction(err, ActionInvalidEntity) {
		t.Fatalf("want invalid-entity latch, got %v", err)
	}
	// Further writes fail until Resume clears the latch.
	if err := p.Write("x"); err == nil {
		t.Fatal("write while latched should fail")
	}
	if err := p.Resume().Write(` two</a>`); err != nil {
		t.Fatalf("write after resume: %v", err)
	}
}

func TestCloseTagRecovery(t *testing.T) {
	log := parse(t, `<a><b></c></b></a>`, WithLowercase(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a)",
		"opentagstart(b)",
		"opentag(b)",
		"error(unexpected-close-tag)",
		"error(unexpected-close-tag)",
		"error(unmatched-close-tag)",
		"text(</c>)",
		"closetag(b)",
		"closetag(a)",
		"end",
	})
}

func TestCloseTagRecoveryPopsIntervening(t *testing.T) {
	// The mismatched </a> pops both b and a, intervening mismatch
	// logged but tolerated.
	log := parse(t, `<a><b></a>`, WithLowercase(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a)",
		"opentagstart(b)",
		"opentag(b)",
		"error(unexpected-close-tag)",
		"closetag(b)",
		"closetag(a)",
		"end",
	})
}

func TestStrictLatchAndResume(t *testing.T) {
	log := &eventLog{}
	p := NewParser(log.sink(), WithStrict(true))
	err := p.Write(`<a><b></c>`)
	if err == nil || !CatchAction(err, ActionUnexpectedClose) {
		t.Fatalf("want unexpected-close latch, got %v", err)
	}
	if p.Err() == nil {
		t.Fatal("Err() should report the latch")
	}
	p.Resume()
	if err := p.Write(`</b></a>`); err != nil {
		t.Fatalf("after resume: %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
}

// Any partition of the input into Write calls must produce the same
// event sequence as the single-chunk parse.
func TestChunkingInvariance(t *testing.T) {
	docs := []string{
		`<a><b/></a>`,
		`<r xmlns:p="urn:x"><p:c k="v &amp; w"/><!-- note --><![CDATA[x]]></r>`,
		"\uFEFF<?pi body?><!DOCTYPE r><r>t&#65;t</r>",
	}
	for _, doc := range docs {
		whole := parse(t, doc, WithStrict(true), WithXMLNS(true), WithTrackPosition(true))
		runes := []rune(doc)
		for cut := 1; cut < len(runes); cut++ {
			log := &eventLog{}
			p := NewParser(log.sink(), WithStrict(true), WithXMLNS(true), WithTrackPosition(true))
			if err := p.Write(string(runes[:cut])); err != nil {
				t.Fatalf("cut %d: %v", cut, err)
			}
			if err := p.Write(string(runes[cut:])); err != nil {
				t.Fatalf("cut %d: %v", cut, err)
			}
			if err := p.End(); err != nil {
				t.Fatalf("cut %d end: %v", cut, err)
			}
			wantEvents(t, log.describe(), whole.describe())
		}
	}
}

func TestLeadingBOMSkipped(t *testing.T) {
	log := parse(t, "\uFEFF<a/>", WithStrict(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a selfclosing)",
		"closetag(a)",
		"end",
	})
}

func TestTextBeforeRoot(t *testing.T) {
	// Loose: becomes a text node. Strict: latches.
	log := parse(t, "hey<a/>", WithLowercase(true))
	got := log.describe()
	if got[0] != "error(text-outside-root)" {
		t.Fatalf("got %v", got)
	}
	found := false
	for _, s := range got {
		if s == "text(hey)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing text node: %v", got)
	}

	p := NewParser(nil, WithStrict(true))
	if err := p.Write("hey<a/>"); err == nil || !CatchAction(err, ActionTextOutsideRoot) {
		t.Fatalf("strict: want text-outside-root, got %v", err)
	}
}

func TestEndIdempotentAndReusable(t *testing.T) {
	log := &eventLog{}
	p := NewParser(log.sink(), WithStrict(true))
	if err := p.Write(`<a/>`); err != nil {
		t.Fatal(err)
	}
	p.End()
	p.End() // no second end event
	ends := 0
	for _, e := range log.events {
		if e.Kind == EventEnd {
			ends++
		}
	}
	if ends != 1 {
		t.Fatalf("end events = %d", ends)
	}

	// The same instance accepts a fresh document.
	log.events = nil
	if err := p.Write(`<b/>`); err != nil {
		t.Fatal(err)
	}
	p.End()
	wantEvents(t, log.describe(), []string{
		"opentagstart(b)",
		"opentag(b selfclosing)",
		"closetag(b)",
		"end",
	})
}

func TestUnclosedRoot(t *testing.T) {
	log := &eventLog{}
	p := NewParser(log.sink())
	p.Write(`<a><b>`)
	p.End()
	seen := false
	for _, e := range log.events {
		if e.Kind == EventError && CatchAction(e.Err, ActionUnclosedRoot) {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("missing unclosed-root error: %v", log.describe())
	}
}

func TestTrimAndNormalize(t *testing.T) {
	log := parse(t, "<a>  one \n\n two  </a>", WithStrict(true), WithTrim(true), WithNormalize(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(a)",
		"opentag(a)",
		"text(one two)",
		"closetag(a)",
		"end",
	})
}

func TestCaseFolding(t *testing.T) {
	// Loose default folds names upper; lowercase option folds down;
	// strict leaves them alone.
	log := parse(t, `<MiXeD aTTr="1"/>`)
	wantEvents(t, log.describe(), []string{
		"opentagstart(MIXED)",
		"attribute(ATTR=1)",
		"opentag(MIXED selfclosing)",
		"closetag(MIXED)",
		"end",
	})
	log = parse(t, `<MiXeD/>`, WithLowercase(true))
	if log.describe()[1] != "opentag(mixed selfclosing)" {
		t.Fatalf("got %v", log.describe())
	}
}

func TestCommentCDataPIAndDoctype(t *testing.T) {
	doc := `<?xml version="1.0"?><!DOCTYPE r SYSTEM "r.dtd"><r><!-- c --><![CDATA[<raw>&amp;]]></r>`
	log := parse(t, doc, WithStrict(true))
	wantEvents(t, log.describe(), []string{
		`pi(xml|version="1.0")`,
		`doctype( r SYSTEM "r.dtd")`,
		"opentagstart(r)",
		"opentag(r)",
		"comment( c )",
		"opencdata",
		"cdata(<raw>&amp;)",
		"closecdata",
		"closetag(r)",
		"end",
	})
}

func TestDoctypeAfterRootFails(t *testing.T) {
	log := parse(t, `<a><!DOCTYPE b></a>`, WithLowercase(true))
	seen := false
	for _, e := range log.events {
		if e.Kind == EventError && CatchAction(e.Err, ActionMisplacedDoctype) {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("missing misplaced-doctype: %v", log.describe())
	}
}

func TestScriptMode(t *testing.T) {
	doc := `<root><script>if (a<b) x();</script></root>`
	log := parse(t, doc, WithLowercase(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(root)",
		"opentag(root)",
		"opentagstart(script)",
		"opentag(script)",
		"script(if (a<b) x();)",
		"closetag(script)",
		"closetag(root)",
		"end",
	})
}

func TestScriptSwallowsOtherCloseTags(t *testing.T) {
	doc := `<script>a</b>c</script>`
	log := parse(t, doc, WithLowercase(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(script)",
		"opentag(script)",
		"script(a</b>c)",
		"closetag(script)",
		"end",
	})
}

func TestNoScriptOption(t *testing.T) {
	doc := `<script><b/></script>`
	log := parse(t, doc, WithLowercase(true), WithNoScript(true))
	wantEvents(t, log.describe(), []string{
		"opentagstart(script)",
		"opentag(script)",
		"opentagstart(b)",
		"opentag(b selfclosing)",
		"closetag(b)",
		"closetag(script)",
		"end",
	})
}

func TestAttributeWithoutValue(t *testing.T) {
	log := parse(t, `<a foo>`, WithLowercase(true))
	got := log.describe()
	want := []string{
		"opentagstart(a)",
		"error(attrib-without-value)",
		"attribute(foo=foo)",
		"opentag(a)",
	}
	wantEvents(t, got[:4], want)
}

func TestUnquotedAttributeValue(t *testing.T) {
	log := parse(t, `<a foo=bar baz="q"/>`, WithLowercase(true))
	got := log.describe()
	want := []string{
		"opentagstart(a)",
		"error(unquoted-attrib-value)",
		"attribute(foo=bar)",
		"attribute(baz=q)",
		"opentag(a selfclosing)",
		"closetag(a)",
		"end",
	}
	wantEvents(t, got, want)
}

func TestUnboundPrefixLenientFallback(t *testing.T) {
	log := parse(t, `<p:a/>`, WithXMLNS(true), WithLowercase(true))
	for _, e := range log.events {
		if e.Kind == EventOpenTag {
			if e.Tag.URI != "p" {
				t.Fatalf("lenient uri = %q, want prefix fallback", e.Tag.URI)
			}
		}
	}
	seen := false
	for _, e := range log.events {
		if e.Kind == EventError && CatchAction(e.Err, ActionUnboundPrefix) {
			seen = true
		}
	}
	if !seen {
		t.Fatal("missing unbound-prefix error")
	}
}

func TestXMLPrefixRebindGuard(t *testing.T) {
	p := NewParser(nil, WithStrict(true), WithXMLNS(true))
	err := p.Write(`<a xmlns:xml="urn:wrong"/>`)
	if err == nil || !CatchAction(err, ActionXMLPrefixRebind) {
		t.Fatalf("want xml-prefix-rebind, got %v", err)
	}
}

func TestDefaultNamespaceNotAppliedToAttributes(t *testing.T) {
	log := parse(t, `<a xmlns="urn:d" k="v"/>`, WithStrict(true), WithXMLNS(true))
	for _, e := range log.events {
		if e.Kind == EventOpenTag {
			if e.Tag.URI != "urn:d" {
				t.Fatalf("tag uri = %q", e.Tag.URI)
			}
			if a := e.Tag.Attributes["k"]; a.URI != "" {
				t.Fatalf("attribute uri = %q, want empty", a.URI)
			}
		}
	}
}

func TestBufferWatchdogAutoFlush(t *testing.T) {
	log := &eventLog{}
	p := NewParser(log.sink(), WithLowercase(true), WithMaxBufferLength(10))
	big := strings.Repeat("x", 64)
	if err := p.Write(`<a>` + big + `</a>`); err != nil {
		t.Fatal(err)
	}
	p.End()
	var text strings.Builder
	textEvents := 0
	for _, e := range log.events {
		if e.Kind == EventText {
			textEvents++
			text.WriteString(e.Text)
		}
	}
	if textEvents < 2 {
		t.Fatalf("expected auto-flushed text events, got %d", textEvents)
	}
	if text.String() != big {
		t.Fatalf("reassembled text = %q", text.String())
	}
}

func TestBufferWatchdogFatal(t *testing.T) {
	p := NewParser(nil, WithLowercase(true), WithMaxBufferLength(10))
	err := p.Write(`<a><!-- ` + strings.Repeat("y", 64))
	if err == nil || !CatchAction(err, ActionMaxBuffer) {
		t.Fatalf("want max-buffer-length, got %v", err)
	}
	// Fatal regardless of Resume-less strictness: the latch holds.
	if err := p.Write("z"); err == nil {
		t.Fatal("write should keep failing")
	}
}

func TestPositionAnnotation(t *testing.T) {
	p := NewParser(nil, WithStrict(true), WithTrackPosition(true))
	err := p.Write("<a>\n</b>")
	if err == nil {
		t.Fatal("want latch")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error not annotated: %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	p := NewParser(nil, WithLowercase(true))
	p.Write(`<a><b>`)
	snap := p.Snapshot()
	if len(snap.OpenTags) != 2 || snap.OpenTags[0] != "a" || snap.OpenTags[1] != "b" {
		t.Fatalf("open tags = %v", snap.OpenTags)
	}
	if snap.State != "Text" {
		t.Fatalf("state = %q", snap.State)
	}
}

func TestTagDepth(t *testing.T) {
	depths := map[string]int{}
	p := NewParser(FuncSink(func(e Event) {
		if e.Kind == EventOpenTag {
			depths[e.Tag.Name] = e.Tag.Depth()
		}
	}), WithLowercase(true))
	p.Write(`<a><b><c/></b></a>`)
	p.End()
	if depths["a"] != 1 || depths["b"] != 2 || depths["c"] != 3 {
		t.Fatalf("depths = %v", depths)
	}
}

func TestStrayMarkupAfterRootLoose(t *testing.T) {
	// After the root closes, a stray '<' is literal text in loose mode.
	log := parse(t, `<a></a>< nope`, WithLowercase(true))
	var texts []string
	for _, e := range log.events {
		if e.Kind == EventText {
			texts = append(texts, e.Text)
		}
	}
	if len(texts) == 0 || !strings.Contains(strings.Join(texts, ""), "<") {
		t.Fatalf("texts = %v", texts)
	}
}

func TestWeirdEmptyCloseTag(t *testing.T) {
	log := parse(t, `<a></><b/></a>`, WithLowercase(true))
	seen := false
	for _, e := range log.events {
		if e.Kind == EventError && CatchAction(e.Err, ActionWeirdEmptyClose) {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("missing weird-empty-close-tag: %v", log.describe())
	}
}

func TestProcInstBodyKeepsInnerQuestionMarks(t *testing.T) {
	log := parse(t, `<?t a?b?><r/>`, WithStrict(true))
	wantEvents(t, log.describe()[:1], []string{"pi(t|a?b)"})
}

func TestSGMLDeclaration(t *testing.T) {
	log := parse(t, `<!ENTITY x "y"><r/>`, WithLowercase(true))
	wantEvents(t, log.describe()[:1], []string{`sgmldecl(ENTITY x "y")`})
}

func TestExtraEntities(t *testing.T) {
	log := parse(t, `<a>&mdash;</a>`,
		WithStrict(true), WithStrictEntities(true),
		WithExtraEntities(map[string]string{"mdash": "—"}))
	for _, e := range log.events {
		if e.Kind == EventText && e.Text != "—" {
			t.Fatalf("text = %q", e.Text)
		}
	}
}
