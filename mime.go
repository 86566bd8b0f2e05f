package arus

import (
	"mime"
	"strings"
	"sync"
)

// mimeTypeCache caches content types by file extension to avoid repeated lookups
var mimeTypeCache = struct {
	sync.RWMutex
	types map[string]string
}{
	types: map[string]string{
		".html":  MIMETextHTMLCharsetUTF8,
		".htm":   MIMETextHTMLCharsetUTF8,
		".css":   MIMETextCSSCharsetUTF8,
		".js":    MIMEApplicationJavaScriptCharsetUTF8,
		".json":  MIMEApplicationJSONCharsetUTF8,
		".png":   "image/png",
		".jpg":   "image/jpeg",
		".jpeg":  "image/jpeg",
		".gif":   "image/gif",
		".svg":   "image/svg+xml",
		".ico":   "image/x-icon",
		".webp":  "image/webp",
		".txt":   MIMETextPlainCharsetUTF8,
		".pdf":   "application/pdf",
		".xml":   MIMEApplicationXMLCharsetUTF8,
		".woff":  "font/woff",
		".woff2": "font/woff2",
		".ttf":   "font/ttf",
		".otf":   "font/otf",
		".zip":   "application/zip",
		".mp4":   "video/mp4",
		".webm":  "video/webm",
		".mp3":   "audio/mpeg",
		".wav":   "audio/wav",
	},
}

// MimeType returns the content type for a file extension (with or without
// the leading dot). Unknown extensions map to application/octet-stream.
func MimeType(ext string) string {
	if ext == "" {
		return MIMEOctetStream
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)

	mimeTypeCache.RLock()
	contentType, exists := mimeTypeCache.types[ext]
	mimeTypeCache.RUnlock()
	if exists {
		return contentType
	}

	contentType = mime.TypeByExtension(ext)
	if contentType == "" {
		return MIMEOctetStream
	}

	mimeTypeCache.Lock()
	mimeTypeCache.types[ext] = contentType
	mimeTypeCache.Unlock()

	return contentType
}

// shorthandTypes maps the content-type shorthands accepted by Response.Type,
// Request.Accepts and Request.Is to canonical MIME strings.
var shorthandTypes = map[string]string{
	"json": MIMEApplicationJSONCharsetUTF8,
	"html": MIMETextHTMLCharsetUTF8,
	"text": MIMETextPlainCharsetUTF8,
	"txt":  MIMETextPlainCharsetUTF8,
	"xml":  MIMEApplicationXMLCharsetUTF8,
	"form": MIMEApplicationForm,
	"css":  MIMETextCSSCharsetUTF8,
	"js":   MIMEApplicationJavaScriptCharsetUTF8,
}

// resolveType expands a shorthand ("json"), an extension (".png") or a full
// MIME type into a content type.
func resolveType(t string) string {
	if full, ok := shorthandTypes[strings.ToLower(t)]; ok {
		return full
	}
	if strings.HasPrefix(t, ".") {
		return MimeType(t)
	}
	if !strings.Contains(t, "/") {
		return MimeType(t)
	}
	return t
}

// baseMediaType strips parameters and lowercases a media type.
func baseMediaType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}
