package arus

import "net/textproto"

// Header is a case-insensitive header multimap shared by Request and
// Response. Keys are stored in canonical MIME form; the methods
// canonicalize their key argument, direct map access does not.
type Header map[string][]string

// Add appends value to the values of key.
func (h Header) Add(key, value string) {
	textproto.MIMEHeader(h).Add(key, value)
}

// Set replaces the values of key with value.
func (h Header) Set(key, value string) {
	textproto.MIMEHeader(h).Set(key, value)
}

// Get returns the first value of key, or "".
func (h Header) Get(key string) string {
	return textproto.MIMEHeader(h).Get(key)
}

// Values returns every value of key. The slice is shared with h.
func (h Header) Values(key string) []string {
	return textproto.MIMEHeader(h).Values(key)
}

// Del removes key.
func (h Header) Del(key string) {
	textproto.MIMEHeader(h).Del(key)
}

// Clone returns a deep copy of h, or nil when h is nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, vv := range h {
		out[k] = append([]string(nil), vv...)
	}
	return out
}

// headerFrom copies a transport header map into a Header. Keys are
// canonicalized and values of keys that collide after canonicalization
// are merged.
func headerFrom(src map[string][]string) Header {
	h := make(Header, len(src))
	for k, vv := range src {
		key := textproto.CanonicalMIMEHeaderKey(k)
		h[key] = append(h[key], vv...)
	}
	return h
}
