package xsax

// nsMap is a tag's prefix->URI binding set. Tags that introduce no new
// bindings share their parent's map by reference; the first xmlns
// attribute on a tag clones the map before inserting into it (tracked
// explicitly by Tag.nsOwned rather than by map identity, since Go maps
// have no comparable identity once passed around by value). rootNS
// builds a fresh copy of the base map every top-level tag starts from.
type nsMap map[string]string

func rootNS() nsMap {
	return nsMap{
		"xml":   xmlNamespaceURI,
		"xmlns": xmlnsNamespaceURI,
	}
}

func (m nsMap) clone() nsMap {
	c := make(nsMap, len(m)+1)
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Binding is one prefix->URI pair, the payload of opennamespace and
// closenamespace events.
type Binding struct {
	Prefix string
	URI    string
}
