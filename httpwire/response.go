package httpwire

import (
	"strings"
	"time"
)

// Response é montada uma vez por requisição e entregue ao Writer.Write.
type Response struct {
	Status        int
	StatusText    string
	ContentType   string
	ContentLength int
	Body          []byte
	KeepAlive     bool
	// Location só vai no 301.
	Location string
	// RetryAfter só vai no 429.
	RetryAfter time.Duration
	// Request serve para negociar compressão. Pode ser nil.
	Request *Request
}

const (
	MIMEHTML   = "text/html; charset=UTF-8"
	MIMEText   = "text/plain; charset=UTF-8"
	MIMEJSON   = "application/json; charset=UTF-8"
	MIMECSS    = "text/css; charset=UTF-8"
	MIMEJS     = "application/javascript; charset=UTF-8"
	MIMEJPEG   = "image/jpeg"
	MIMEPNG    = "image/png"
	MIMEGIF    = "image/gif"
	MIMESVG    = "image/svg+xml"
	MIMEBinary = "application/octet-stream"
)

// NewTextResponse monta uma resposta text/plain, usada nos status de erro.
func NewTextResponse(status int, body string, keepAlive bool) *Response {
	return &Response{
		Status:        status,
		StatusText:    StatusText(status),
		ContentType:   MIMEText,
		ContentLength: len(body),
		Body:          []byte(body),
		KeepAlive:     keepAlive,
	}
}

func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// CacheMaxAge devolve o max-age em segundos de um 200 do tipo dado.
func CacheMaxAge(contentType string) int {
	switch {
	case strings.HasPrefix(contentType, "text/html"):
		return 3600
	case strings.HasPrefix(contentType, "text/css"),
		strings.HasPrefix(contentType, "application/javascript"):
		return 604800
	case strings.HasPrefix(contentType, "image/"):
		return 2592000
	default:
		return 86400
	}
}

// Compressible indica se vale a pena comprimir esse tipo.
func Compressible(contentType string) bool {
	for _, p := range []string{
		"text/",
		"application/json",
		"application/javascript",
		"application/xml",
		"application/x-javascript",
	} {
		if strings.HasPrefix(contentType, p) {
			return true
		}
	}
	return false
}
