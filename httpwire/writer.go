package httpwire

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const DefaultServerName = "static-httpd/1.0"

// DateFormat é RFC1123 com a zona fixa em GMT.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Writer serializa respostas. O valor zero escreve sem compressão e com o
// Server padrão.
type Writer struct {
	ServerName  string
	GzipEnabled bool
	GzipMinSize int
	Compressor  Compressor
	Now         func() time.Time
	Logger      *slog.Logger
}

// Write envia resp em duas escritas: cabeçalhos e depois corpo.
// Depois de um erro de escrita a conexão fica inconsistente e deve ser fechada.
func (wr *Writer) Write(w io.Writer, resp *Response) error {
	now := time.Now
	if wr.Now != nil {
		now = wr.Now
	}
	t := now()

	body := resp.Body
	length := resp.ContentLength
	if len(body) == 0 {
		body, length = nil, 0
	} else if length > len(body) || length <= 0 {
		length = len(body)
	}

	// ETag usa o tamanho antes da compressão
	plainLen := length
	encoded := false
	if wr.shouldCompress(resp, length) {
		z, err := wr.Compressor.Compress(body[:length])
		if err != nil {
			wr.logger().Debug("gzip failed, sending identity", "error", err)
		} else {
			wr.logger().Debug("gzip response", "from", length, "to", len(z))
			body, length, encoded = z, len(z), true
		}
	}

	statusText := resp.StatusText
	if statusText == "" {
		statusText = StatusText(resp.Status)
	}
	serverName := wr.ServerName
	if serverName == "" {
		serverName = DefaultServerName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.Status, statusText)
	fmt.Fprintf(&b, "Server: %s\r\n", serverName)
	fmt.Fprintf(&b, "Date: %s\r\n", t.UTC().Format(DateFormat))
	fmt.Fprintf(&b, "Content-Type: %s\r\n", sanitizeHeaderValue(resp.ContentType))
	fmt.Fprintf(&b, "Content-Length: %d\r\n", length)
	if resp.Status == 301 && resp.Location != "" {
		fmt.Fprintf(&b, "Location: %s\r\n", sanitizeHeaderValue(resp.Location))
	}
	if resp.Status == 200 {
		fmt.Fprintf(&b, "Cache-Control: public, max-age=%d\r\n", CacheMaxAge(resp.ContentType))
		fmt.Fprintf(&b, "ETag: W/\"%x-%x\"\r\n", plainLen, t.Unix())
	} else {
		b.WriteString("Cache-Control: no-store\r\n")
	}
	if encoded {
		b.WriteString("Content-Encoding: gzip\r\n")
	}
	if resp.Status == 429 && resp.RetryAfter > 0 {
		fmt.Fprintf(&b, "Retry-After: %s\r\n", retryAfterSeconds(resp.RetryAfter))
	}
	if resp.KeepAlive {
		b.WriteString("Connection: keep-alive\r\n")
	} else {
		b.WriteString("Connection: close\r\n")
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if length > 0 {
		if _, err := w.Write(body[:length]); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) shouldCompress(resp *Response, length int) bool {
	return wr.GzipEnabled &&
		wr.Compressor != nil &&
		resp.Status == 200 &&
		length > 0 &&
		length > wr.GzipMinSize &&
		Compressible(resp.ContentType) &&
		resp.Request.AcceptsGzip()
}

func (wr *Writer) logger() *slog.Logger {
	if wr.Logger != nil {
		return wr.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func sanitizeHeaderValue(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return v
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
