package arus

import "strings"

// globalPrefix marks a middleware entry that runs for every request.
const globalPrefix = "*"

// middlewareEntry is one (prefix, handler) pair of the pipeline.
type middlewareEntry struct {
	prefix  string
	handler Handler
}

// matches reports whether the entry applies to path. Prefix entries match
// when the prefix is a literal prefix of the normalized path.
func (e middlewareEntry) matches(path string) bool {
	return e.prefix == globalPrefix || strings.HasPrefix(path, e.prefix)
}

// basePath is the value Request.BasePath takes while the entry runs.
func (e middlewareEntry) basePath() string {
	if e.prefix == globalPrefix || e.prefix == "/" {
		return ""
	}
	return e.prefix
}

// Pipeline is the ordered, read-only list of middleware run before routing.
type Pipeline struct {
	entries []middlewareEntry
}

// Len returns the number of entries.
func (p Pipeline) Len() int {
	return len(p.entries)
}

// Prefixes returns the prefix of every entry in dispatch order.
func (p Pipeline) Prefixes() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.prefix
	}
	return out
}
