package arus

import (
	"sort"
	"strconv"
	"strings"
)

// acceptSpec is one media range of an Accept header.
type acceptSpec struct {
	typ, sub string
	q        float64
	order    int
}

func parseAccept(header string) []acceptSpec {
	parts := strings.Split(header, ",")
	specs := make([]acceptSpec, 0, len(parts))
	for i, part := range parts {
		params := strings.Split(part, ";")
		mediaRange := strings.ToLower(strings.TrimSpace(params[0]))
		if mediaRange == "" {
			continue
		}
		typ, sub, found := strings.Cut(mediaRange, "/")
		if !found {
			typ, sub = mediaRange, "*"
		}

		spec := acceptSpec{typ: typ, sub: sub, q: 1, order: i}
		for _, p := range params[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.ToLower(strings.TrimSpace(k)) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				spec.q = q
			}
		}
		specs = append(specs, spec)
	}

	// Most specific first so an explicit "text/html;q=0" beats "*/*".
	sort.SliceStable(specs, func(i, j int) bool {
		return specificity(specs[i]) > specificity(specs[j])
	})
	return specs
}

func specificity(s acceptSpec) int {
	switch {
	case s.typ == "*":
		return 0
	case s.sub == "*":
		return 1
	default:
		return 2
	}
}

// quality returns the q-value the Accept specs give to mediaType, or -1 if
// no spec covers it.
func quality(specs []acceptSpec, mediaType string) float64 {
	typ, sub, _ := strings.Cut(mediaType, "/")
	for _, s := range specs {
		if (s.typ == "*" || s.typ == typ) && (s.sub == "*" || s.sub == sub) {
			return s.q
		}
	}
	return -1
}

// Accepts returns the offer the client prefers according to the Accept
// header, or "" if none is acceptable. Offers may be shorthands ("json",
// "html") or MIME types; the matched offer is returned as given. Ties keep
// the order of the offers, and a missing Accept header accepts the first.
func (r *Request) Accepts(offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	header := r.Header.Get(HeaderAccept)
	if strings.TrimSpace(header) == "" {
		return offers[0]
	}

	specs := parseAccept(header)
	best, bestQ := "", 0.0
	for _, offer := range offers {
		q := quality(specs, baseMediaType(resolveType(offer)))
		if q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best
}

// AcceptsHTML reports whether the client prefers HTML over JSON.
func (r *Request) AcceptsHTML() bool {
	return r.Accepts("json", "html") == "html"
}

// Is checks the request Content-Type against the given types and returns
// the first one that matches, or "". Types may be shorthands, full MIME
// types or wildcards such as "application/*".
func (r *Request) Is(types ...string) string {
	contentType := baseMediaType(r.Header.Get(HeaderContentType))
	if contentType == "" {
		return ""
	}
	typ, sub, _ := strings.Cut(contentType, "/")

	for _, t := range types {
		want := baseMediaType(resolveType(t))
		wantTyp, wantSub, _ := strings.Cut(want, "/")
		if (wantTyp == "*" || wantTyp == typ) && (wantSub == "*" || wantSub == sub) {
			return t
		}
		// Structured syntax suffixes such as application/vnd.api+json.
		if wantTyp == typ && strings.HasSuffix(sub, "+"+wantSub) {
			return t
		}
	}
	return ""
}
