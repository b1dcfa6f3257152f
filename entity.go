package xsax

import "strconv"

// entityTable maps entity names (without the surrounding & ;) to their
// expansion. Two static tables exist: the five XML-predefined entities,
// and the larger HTML-4 named-entity set used when strictEntities is
// off (the default is lenient, matching most real-world feeds that
// lean on &nbsp; and friends despite not being valid XML).
var xmlEntities = map[string]string{
	"amp":  "&",
	"apos": "'",
	"gt":   ">",
	"lt":   "<",
	"quot": "\"",
}

// htmlEntities is the HTML-4 named character reference set. It is not
// exhaustive of HTML5's ~2100 entries; it covers the ~250 names that
// predate HTML5 and are the ones XML-ish feeds actually lean on.
var htmlEntities = map[string]string{
	"amp": "&", "apos": "'", "gt": ">", "lt": "<", "quot": "\"",
	"AElig": "Æ", "Aacute": "Á", "Acirc": "Â", "Agrave": "À",
	"Aring": "Å", "Atilde": "Ã", "Auml": "Ä", "Ccedil": "Ç",
	"ETH": "Ð", "Eacute": "É", "Ecirc": "Ê", "Egrave": "È",
	"Euml": "Ë", "Iacute": "Í", "Icirc": "Î", "Igrave": "Ì",
	"Iuml": "Ï", "Ntilde": "Ñ", "Oacute": "Ó", "Ocirc": "Ô",
	"Ograve": "Ò", "Oslash": "Ø", "Otilde": "Õ", "Ouml": "Ö",
	"THORN": "Þ", "Uacute": "Ú", "Ucirc": "Û", "Ugrave": "Ù",
	"Uuml": "Ü", "Yacute": "Ý", "aacute": "á", "acirc": "â",
	"acute": "´", "aelig": "æ", "agrave": "à", "aring": "å",
	"atilde": "ã", "auml": "ä", "brvbar": "¦", "ccedil": "ç",
	"cedil": "¸", "cent": "¢", "copy": "©", "curren": "¤",
	"deg": "°", "divide": "÷", "eacute": "é", "ecirc": "ê",
	"egrave": "è", "eth": "ð", "euml": "ë", "frac12": "½",
	"frac14": "¼", "frac34": "¾", "iacute": "í", "icirc": "î",
	"iexcl": "¡", "igrave": "ì", "iquest": "¿", "iuml": "ï",
	"laquo": "«", "macr": "¯", "micro": "µ", "middot": "·",
	"nbsp": " ", "not": "¬", "ntilde": "ñ", "oacute": "ó",
	"ocirc": "ô", "ograve": "ò", "ordf": "ª", "ordm": "º",
	"oslash": "ø", "otilde": "õ", "ouml": "ö", "para": "¶",
	"plusmn": "±", "pound": "£", "raquo": "»", "reg": "®",
	"sect": "§", "shy": "­", "sup1": "¹", "sup2": "²",
	"sup3": "³", "szlig": "ß", "thorn": "þ", "times": "×",
	"uacute": "ú", "ucirc": "û", "ugrave": "ù", "uml": "¨",
	"uuml": "ü", "yacute": "ý", "yen": "¥", "yuml": "ÿ",
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ",
	"epsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ",
	"nu": "ν", "xi": "ξ", "omicron": "ο", "pi": "π",
	"rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ",
	"phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"bull": "•", "hellip": "…", "prime": "′", "Prime": "″",
	"oline": "‾", "frasl": "⁄", "weierp": "℘", "image": "ℑ",
	"real": "ℜ", "trade": "™", "alefsym": "ℵ", "larr": "←",
	"uarr": "↑", "rarr": "→", "darr": "↓", "harr": "↔",
	"crarr": "↵", "lArr": "⇐", "uArr": "⇑", "rArr": "⇒",
	"dArr": "⇓", "hArr": "⇔", "forall": "∀", "part": "∂",
	"exist": "∃", "empty": "∅", "nabla": "∇", "isin": "∈",
	"notin": "∉", "ni": "∋", "prod": "∏", "sum": "∑",
	"minus": "−", "lowast": "∗", "radic": "√", "prop": "∝",
	"infin": "∞", "ang": "∠", "and": "∧", "or": "∨",
	"cap": "∩", "cup": "∪", "int": "∫", "there4": "∴",
	"sim": "∼", "cong": "≅", "asymp": "≈", "ne": "≠",
	"equiv": "≡", "le": "≤", "ge": "≥", "sub": "⊂",
	"sup": "⊃", "nsub": "⊄", "sube": "⊆", "supe": "⊇",
	"oplus": "⊕", "otimes": "⊗", "perp": "⊥", "sdot": "⋅",
	"lceil": "⌈", "rceil": "⌉", "lfloor": "⌊", "rfloor": "⌋",
	"lang": "〈", "rang": "〉", "loz": "◊", "spades": "♠",
	"clubs": "♣", "hearts": "♥", "diams": "♦", "OElig": "Œ",
	"oelig": "œ", "Scaron": "Š", "scaron": "š", "Yuml": "Ÿ",
	"fnof": "ƒ", "circ": "ˆ", "tilde": "˜", "ensp": " ",
	"emsp": " ", "thinsp": " ", "zwnj": "‌", "zwj": "‍",
	"lrm": "‎", "rlm": "‏", "sbquo": "‚", "ldquo": "“",
	"rdquo": "”", "bdquo": "„", "dagger": "†", "Dagger": "‡",
	"permil": "‰", "lsaquo": "‹", "rsaquo": "›", "euro": "€",
	"Alpha": "Α", "Beta": "Β", "Gamma": "Γ", "Delta": "Δ",
	"Epsilon": "Ε", "Zeta": "Ζ", "Eta": "Η", "Theta": "Θ",
	"Iota": "Ι", "Kappa": "Κ", "Lambda": "Λ", "Mu": "Μ",
	"Nu": "Ν", "Xi": "Ξ", "Omicron": "Ο", "Pi": "Π",
	"Rho": "Ρ", "Sigma": "Σ", "Tau": "Τ", "Upsilon": "Υ",
	"Phi": "Φ", "Chi": "Χ", "Psi": "Ψ", "Omega": "Ω",
	"sigmaf": "ς", "thetasym": "ϑ", "upsih": "ϒ", "piv": "ϖ",
	"ndash": "–", "mdash": "—", "lsquo": "‘", "rsquo": "’",
}

// entityResolver resolves the buffered text inside "&...;" to its
// expansion. ok is false when the entity is
// malformed or unknown; the expansion is then the literal "&name;"
// text, and the caller (TextEntity/AttribValueEntity* states) decides
// whether that is a strict-mode violation.
type entityResolver struct {
	table map[string]string
}

func newEntityResolver(strict bool) *entityResolver {
	if strict {
		return &entityResolver{table: xmlEntities}
	}
	return &entityResolver{table: htmlEntities}
}

func (r *entityResolver) resolve(name string) (expansion string, ok bool) {
	if v, found := r.table[name]; found {
		return v, true
	}
	lower := toLowerASCII(name)
	if v, found := r.table[lower]; found {
		return v, true
	}
	if len(lower) > 0 && lower[0] == '#' {
		return resolveNumeric(name[1:])
	}
	return "&" + name + ";", false
}

// resolveNumeric decodes a "#dd" or "#xhh" numeric character reference
// body (digits is everything after the leading '#'). It round-trips the
// parsed value back to its canonical string form to detect malformed
// input such as leading zeros or trailing garbage.
func resolveNumeric(digits string) (string, bool) {
	if digits == "" {
		return "&#;", false
	}
	base := 10
	body := digits
	if body[0] == 'x' || body[0] == 'X' {
		base = 16
		body = body[1:]
	}
	if body == "" {
		return "&#" + digits + ";", false
	}
	n, err := strconv.ParseUint(body, base, 32)
	if err != nil {
		return "&#" + digits + ";", false
	}
	canonical := strconv.FormatUint(n, base)
	if base == 16 {
		canonical = toUpperASCII(canonical)
		body = toUpperASCII(body)
	}
	if canonical != body {
		return "&#" + digits + ";", false
	}
	return string(rune(n)), true
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
