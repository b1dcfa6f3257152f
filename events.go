package xsax

// Sink is the event consumer contract: one method per event, matching
// how real SAX implementations shape the callback
// surface (cf. the libxml2-style SAX2 struct: start/end per
// construct, not a single generic callback). NopSink embeds the zero
// value of every method so a consumer only overrides what it needs.
type Sink interface {
	OnReady()
	OnText(text string)
	OnDoctype(raw string)
	OnProcessingInstruction(name, body string)
	OnSGMLDeclaration(raw string)
	OnOpenCData()
	OnCData(text string)
	OnCloseCData()
	OnComment(text string)
	OnOpenTagStart(name string)
	OnAttribute(a Attribute)
	OnOpenNamespace(b Binding)
	OnCloseNamespace(b Binding)
	OnOpenTag(t *Tag)
	OnCloseTag(name string)
	OnScript(text string)
	OnError(err error)
	OnEnd()
}

// NopSink implements Sink with every method a no-op; embed it to only
// override the events you care about.
type NopSink struct{}

func (NopSink) OnReady()                               {}
func (NopSink) OnText(string)                          {}
func (NopSink) OnDoctype(string)                       {}
func (NopSink) OnProcessingInstruction(string, string) {}
func (NopSink) OnSGMLDeclaration(string)               {}
func (NopSink) OnOpenCData()                           {}
func (NopSink) OnCData(string)                         {}
func (NopSink) OnCloseCData()                          {}
func (NopSink) OnComment(string)                       {}
func (NopSink) OnOpenTagStart(string)                  {}
func (NopSink) OnAttribute(Attribute)                  {}
func (NopSink) OnOpenNamespace(Binding)                {}
func (NopSink) OnCloseNamespace(Binding)               {}
func (NopSink) OnOpenTag(*Tag)                         {}
func (NopSink) OnCloseTag(string)                      {}
func (NopSink) OnScript(string)                        {}
func (NopSink) OnError(error)                          {}
func (NopSink) OnEnd()                                 {}

// EventKind tags the payload carried by Event, the tagged-union
// alternative to Sink: a single func(Event) callback instead of
// eighteen methods.
type EventKind int

const (
	EventReady EventKind = iota
	EventText
	EventDoctype
	EventProcessingInstruction
	EventSGMLDeclaration
	EventOpenCData
	EventCData
	EventCloseCData
	EventComment
	EventOpenTagStart
	EventAttribute
	EventOpenNamespace
	EventCloseNamespace
	EventOpenTag
	EventCloseTag
	EventScript
	EventError
	EventEnd
)

// Event is the tagged-union rendering of one Sink callback. Only the
// field(s) relevant to Kind are populated.
type Event struct {
	Kind      EventKind
	Text      string
	Name      string
	Body      string // ProcessingInstruction body
	Attribute Attribute
	Binding   Binding
	Tag       *Tag
	Err       error
}

// FuncSink adapts a single func(Event) into the full Sink interface,
// so callers who want one switch statement over a tagged union don't
// have to implement eighteen methods.
type FuncSink func(Event)

func (f FuncSink) OnReady()           { f(Event{Kind: EventReady}) }
func (f FuncSink) OnText(s string)    { f(Event{Kind: EventText, Text: s}) }
func (f FuncSink) OnDoctype(s string) { f(Event{Kind: EventDoctype, Text: s}) }
func (f FuncSink) OnProcessingInstruction(name, body string) {
	f(Event{Kind: EventProcessingInstruction, Name: name, Body: body})
}
func (f FuncSink) OnSGMLDeclaration(s string) { f(Event{Kind: EventSGMLDeclaration, Text: s}) }
func (f FuncSink) OnOpenCData()               { f(Event{Kind: EventOpenCData}) }
func (f FuncSink) OnCData(s string)           { f(Event{Kind: EventCData, Text: s}) }
func (f FuncSink) OnCloseCData()              { f(Event{Kind: EventCloseCData}) }
func (f FuncSink) OnComment(s string)         { f(Event{Kind: EventComment, Text: s}) }
func (f FuncSink) OnOpenTagStart(name string) { f(Event{Kind: EventOpenTagStart, Name: name}) }
func (f FuncSink) OnAttribute(a Attribute)    { f(Event{Kind: EventAttribute, Attribute: a}) }
func (f FuncSink) OnOpenNamespace(b Binding)  { f(Event{Kind: EventOpenNamespace, Binding: b}) }
func (f FuncSink) OnCloseNamespace(b Binding) { f(Event{Kind: EventCloseNamespace, Binding: b}) }
func (f FuncSink) OnOpenTag(t *Tag)           { f(Event{Kind: EventOpenTag, Tag: t}) }
func (f FuncSink) OnCloseTag(name string)     { f(Event{Kind: EventCloseTag, Name: name}) }
func (f FuncSink) OnScript(s string)          { f(Event{Kind: EventScript, Text: s}) }
func (f FuncSink) OnError(err error)          { f(Event{Kind: EventError, Err: err}) }
func (f FuncSink) OnEnd()                     { f(Event{Kind: EventEnd}) }
