package arus

import (
	"regexp"
	"strings"
)

// wildcardParam is the key a trailing "*" segment is captured under.
const wildcardParam = "*"

// pattern is a compiled route path. It is immutable after compilePattern
// returns and safe for concurrent matching.
type pattern struct {
	template    string
	regex       *regexp.Regexp
	paramNames  []string
	hasWildcard bool
	static      bool // no params and no wildcard, matched by string equality
}

// compilePattern turns a route template such as "/users/:id/files/*" into a
// matcher. ":name" captures exactly one segment, "*" captures the remainder
// of the path including slashes. Parameter names are collected left to right
// so they line up with the regex submatches.
func compilePattern(template string) *pattern {
	if template == "" {
		template = "/"
	}
	if template[0] != '/' {
		template = "/" + template
	}

	p := &pattern{template: template}
	if !strings.ContainsAny(template, ":*") {
		p.static = true
		return p
	}

	segments := splitSegments(template)

	var sb strings.Builder
	sb.WriteString("^")
	for i, segment := range segments {
		switch {
		case segment == wildcardParam && i == len(segments)-1:
			// A trailing wildcard also matches the bare prefix.
			sb.WriteString("(?:/(.*))?")
			p.paramNames = append(p.paramNames, wildcardParam)
			p.hasWildcard = true
		case segment == wildcardParam:
			sb.WriteString("/(.*)")
			p.paramNames = append(p.paramNames, wildcardParam)
			p.hasWildcard = true
		case len(segment) > 1 && segment[0] == ':':
			sb.WriteString("/([^/]+)")
			p.paramNames = append(p.paramNames, segment[1:])
		default:
			sb.WriteString("/")
			sb.WriteString(regexp.QuoteMeta(segment))
		}
	}
	if len(segments) == 0 {
		sb.WriteString("/")
	}
	sb.WriteString("$")

	p.regex = regexp.MustCompile(sb.String())
	return p
}

// splitSegments splits a path on "/" and drops empty segments.
func splitSegments(path string) []string {
	segments := make([]string, 0, strings.Count(path, "/"))
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}
	return segments
}

// match reports whether path matches the pattern and returns the captured
// parameters. A miss is not an error.
func (p *pattern) match(path string) (map[string]string, bool) {
	if p.static {
		if path == p.template || (len(p.template) > 1 && path == strings.TrimSuffix(p.template, "/")) {
			return nil, true
		}
		return nil, false
	}

	matches := p.regex.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}

	params := make(map[string]string, len(p.paramNames))
	for i, name := range p.paramNames {
		if i+1 < len(matches) {
			params[name] = matches[i+1]
		}
	}
	return params, true
}
