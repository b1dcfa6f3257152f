package xsax

const (
	// maxBufferLength is the default MAX_BUFFER_LENGTH watchdog
	// threshold. NewParser's WithMaxBufferLength can override it down
	// to minBufferLength, never below.
	maxBufferLength = 65536
	minBufferLength = 10

	xmlNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespaceURI = "http://www.w3.org/2000/xmlns/"
)

// Options configures a Parser and is immutable once the Parser is
// constructed.
type Options struct {
	Strict         bool
	Trim           bool
	Normalize      bool
	Lowercase      bool
	XMLNS          bool
	TrackPosition  bool
	StrictEntities bool
	NoScript       bool

	// MaxBufferLength overrides the watchdog threshold; zero means the
	// default 64 KiB. Values below minBufferLength are raised to it.
	MaxBufferLength int

	// ExtraEntities lets a caller register named entities beyond the
	// built-in table without disabling StrictEntities.
	ExtraEntities map[string]string
}

// Option mutates an Options value; NewParser applies them in order
// over the zero value before freezing the result.
type Option func(*Options)

func WithStrict(b bool) Option         { return func(o *Options) { o.Strict = b } }
func WithTrim(b bool) Option           { return func(o *Options) { o.Trim = b } }
func WithNormalize(b bool) Option      { return func(o *Options) { o.Normalize = b } }
func WithLowercase(b bool) Option      { return func(o *Options) { o.Lowercase = b } }
func WithXMLNS(b bool) Option          { return func(o *Options) { o.XMLNS = b } }
func WithTrackPosition(b bool) Option  { return func(o *Options) { o.TrackPosition = b } }
func WithStrictEntities(b bool) Option { return func(o *Options) { o.StrictEntities = b } }
func WithNoScript(b bool) Option       { return func(o *Options) { o.NoScript = b } }

func WithMaxBufferLength(n int) Option {
	return func(o *Options) { o.MaxBufferLength = n }
}

func WithExtraEntities(m map[string]string) Option {
	return func(o *Options) {
		o.ExtraEntities = make(map[string]string, len(m))
		for k, v := range m {
			o.ExtraEntities[k] = v
		}
	}
}

func (o Options) maxBuf() int {
	if o.MaxBufferLength == 0 {
		return maxBufferLength
	}
	if o.MaxBufferLength < minBufferLength {
		return minBufferLength
	}
	return o.MaxBufferLength
}

func (o Options) casefold(name string) string {
	if o.Strict {
		return name
	}
	if o.Lowercase {
		return toLowerASCII(name)
	}
	return toUpperASCII(name)
}
