package static

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"static-httpd/httpwire"
)

// FileSystem é o que o handler precisa do disco.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (osFS) ReadFile(name string) ([]byte, error)  { return os.ReadFile(name) }

type Options struct {
	Root string
	// Confine responde 404 para paths que saem de Root.
	Confine bool
	FS      FileSystem
	Logger  *slog.Logger
}

type Handler struct {
	root    string
	confine bool
	fs      FileSystem
	logger  *slog.Logger
}

func New(opts Options) *Handler {
	root := opts.Root
	if root == "" {
		root = "."
	}
	if opts.FS == nil {
		opts.FS = osFS{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		root:    filepath.Clean(root),
		confine: opts.Confine,
		fs:      opts.FS,
		logger:  opts.Logger,
	}
}

// Validator é o ETag fraco comparado com If-None-Match.
func Validator(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().Unix())
}

// Serve monta a resposta de req. Nunca devolve nil.
func (h *Handler) Serve(req *httpwire.Request) *httpwire.Response {
	if req.Method != "GET" && req.Method != "HEAD" {
		return httpwire.NewTextResponse(405, "Method Not Allowed", req.KeepAlive)
	}

	// a query string não faz parte do nome do arquivo
	urlPath := req.Path
	if i := strings.IndexByte(urlPath, '?'); i >= 0 {
		urlPath = urlPath[:i]
	}
	if urlPath == "" {
		return notFound(req)
	}

	var name string
	if urlPath == "/" {
		name = filepath.Join(h.root, "index.html")
	} else {
		name = h.root + filepath.FromSlash(urlPath)
	}
	if !h.inside(name) {
		h.logger.Warn("path escapes document root", "path", req.Path, "client", req.RemoteAddr)
		return notFound(req)
	}

	info, err := h.fs.Stat(name)
	if err != nil {
		return notFound(req)
	}
	if info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			return &httpwire.Response{
				Status:      301,
				StatusText:  httpwire.StatusText(301),
				ContentType: httpwire.MIMEHTML,
				Location:    urlPath + "/",
				KeepAlive:   req.KeepAlive,
				Request:     req,
			}
		}
		name = filepath.Join(name, "index.html")
		info, err = h.fs.Stat(name)
		if err != nil || info.IsDir() {
			return notFound(req)
		}
	}

	ct := MIMEType(name)
	etag := Validator(info)
	if req.IfNoneMatch != "" && strings.Contains(req.IfNoneMatch, etag) {
		h.logger.Debug("etag match", "path", req.Path, "etag", etag)
		return &httpwire.Response{
			Status:      304,
			StatusText:  httpwire.StatusText(304),
			ContentType: ct,
			KeepAlive:   req.KeepAlive,
			Request:     req,
		}
	}

	body, err := h.fs.ReadFile(name)
	if err != nil {
		h.logger.Error("read file failed", "path", name, "error", err)
		return httpwire.NewTextResponse(500, "Internal Server Error", req.KeepAlive)
	}

	resp := &httpwire.Response{
		Status:        200,
		StatusText:    httpwire.StatusText(200),
		ContentType:   ct,
		ContentLength: len(body),
		Body:          body,
		KeepAlive:     req.KeepAlive,
		Request:       req,
	}
	// HEAD responde Content-Length 0 e sem corpo.
	if req.Method == "HEAD" {
		resp.Body = nil
		resp.ContentLength = 0
	}
	return resp
}

func (h *Handler) inside(name string) bool {
	if !h.confine {
		return true
	}
	rel, err := filepath.Rel(h.root, filepath.Clean(name))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func notFound(req *httpwire.Request) *httpwire.Response {
	return httpwire.NewTextResponse(404, "Not Found", req.KeepAlive)
}
