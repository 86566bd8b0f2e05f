// Package static serves files from a directory under the prefix the
// middleware is mounted at.
//
//	app.Use("/assets", static.New(static.Config{Root: "./public", MaxAge: 3600}))
package static

import (
	"errors"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/internal/filecache"
)

// ErrForbidden is returned for paths that try to leave Root.
var ErrForbidden = arus.NewHttpError(arus.StatusForbidden, "")

// Config defines the config for the static middleware.
type Config struct {
	// Root is the directory files are served from.
	// Required.
	Root string

	// Index is the file served for a directory.
	// Optional. Default value "index.html".
	Index string

	// Browse enables directory listings when a directory has no index.
	// Optional. Default value false.
	Browse bool

	// Download serves every file as an attachment.
	// Optional. Default value false.
	Download bool

	// ByteRange honors the Range request header.
	// Optional. Default value false.
	ByteRange bool

	// MaxAge is the Cache-Control max-age in seconds. Zero omits the header.
	// Optional. Default value 0.
	MaxAge int

	// ModifyResponse runs after the file headers are set and before the
	// body is sent.
	// Optional. Default: nil
	ModifyResponse arus.Handler

	// Next defines a function to skip this middleware when returned true.
	// Optional. Default: nil
	Next func(c *arus.Ctx) bool

	// Cache holds file bodies between requests.
	// Optional. Default value filecache.DefaultCache.
	Cache *filecache.Cache
}

// ConfigDefault is the default config.
var ConfigDefault = Config{
	Index: "index.html",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}
	cfg := config[0]
	if cfg.Index == "" {
		cfg.Index = ConfigDefault.Index
	}
	return cfg
}

// New creates a static file handler. Requests for files that do not exist
// fall through to the rest of the pipeline.
func New(config ...Config) arus.Handler {
	cfg := configDefault(config...)
	if cfg.Cache == nil {
		cfg.Cache = filecache.DefaultCache
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = filepath.Clean(cfg.Root)
	}

	return func(c *arus.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}
		method := c.Method()
		if method != arus.MethodGet && method != arus.MethodHead {
			return c.Next()
		}

		rel := strings.TrimPrefix(c.Path(), c.Request.BasePath)
		if hasDotDot(rel) || strings.IndexByte(rel, 0) >= 0 {
			return ErrForbidden
		}
		rel = path.Clean("/" + rel)
		full := filepath.Join(root, filepath.FromSlash(rel))

		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return c.Next()
			}
			return err
		}
		if resolved, err := filepath.EvalSymlinks(full); err != nil || !within(root, resolved) {
			return ErrForbidden
		}

		if info.IsDir() {
			index := filepath.Join(full, cfg.Index)
			if ii, err := os.Stat(index); err == nil && !ii.IsDir() {
				full, info = index, ii
			} else if cfg.Browse {
				return browse(c, full, rel, c.Request.BasePath)
			} else {
				return c.Next()
			}
		}

		return serve(c, cfg, full, info)
	}
}

func serve(c *arus.Ctx, cfg Config, full string, info fs.FileInfo) error {
	res := c.Response
	if cfg.MaxAge > 0 {
		res.Set(arus.HeaderCacheControl, "public, max-age="+strconv.Itoa(cfg.MaxAge))
	}
	if cfg.Download {
		res.Attachment(filepath.Base(full))
	}
	if cfg.ModifyResponse != nil {
		if err := cfg.ModifyResponse(c); err != nil {
			return err
		}
	}

	if cfg.ByteRange && c.Get(arus.HeaderRange) != "" {
		return c.SendFile(full)
	}

	modTime := info.ModTime().UTC().Truncate(time.Second)
	if since := c.Get(arus.HeaderIfModifiedSince); since != "" {
		if t, err := time.Parse(arus.TimeFormat, since); err == nil && !modTime.After(t) {
			return res.Status(arus.StatusNotModified).Send(nil)
		}
	}

	f, err := cfg.Cache.Load(full, arus.MimeType(filepath.Ext(full)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.Next()
		}
		return err
	}
	if res.Get(arus.HeaderContentType) == "" {
		res.Set(arus.HeaderContentType, f.ContentType)
	}
	res.Set(arus.HeaderLastModified, modTime.Format(arus.TimeFormat))
	if cfg.ByteRange {
		res.Set(arus.HeaderAcceptRanges, "bytes")
	}
	return res.Send(f.Data)
}

// hasDotDot reports whether any segment of p is "..".
func hasDotDot(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func within(root, p string) bool {
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type listingEntry struct {
	Name    string
	Href    string
	Size    string
	ModTime string
}

type listing struct {
	Path    string
	Parent  string
	Entries []listingEntry
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Index of {{.Path}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #ddd;padding:.4rem;text-align:left}
a{text-decoration:none;color:#0366d6}
</style>
</head>
<body>
<h1>Index of {{.Path}}</h1>
<table>
<tr><th>Name</th><th>Size</th><th>Modified</th></tr>
{{if .Parent}}<tr><td><a href="{{.Parent}}">../</a></td><td>-</td><td>-</td></tr>{{end}}
{{range .Entries}}<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td>{{.Size}}</td><td>{{.ModTime}}</td></tr>
{{end}}</table>
</body>
</html>
`))

func browse(c *arus.Ctx, dir, rel, base string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	data := listing{Path: rel}
	if rel != "/" {
		data.Parent = path.Join("/", base, path.Dir(rel))
		if data.Parent != "/" {
			data.Parent += "/"
		}
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		le := listingEntry{
			Name:    e.Name(),
			Href:    path.Join("/", base, rel, e.Name()),
			Size:    "-",
			ModTime: info.ModTime().Format("2006-01-02 15:04:05"),
		}
		if e.IsDir() {
			le.Name += "/"
			le.Href += "/"
		} else {
			le.Size = formatSize(info.Size())
		}
		data.Entries = append(data.Entries, le)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := listingTemplate.Execute(buf, data); err != nil {
		return err
	}
	return c.HTML(string(buf.B))
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "B"
}
