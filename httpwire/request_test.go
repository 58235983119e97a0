package httpwire

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

var peer = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 40000}

func TestReadRequest_Basic(t *testing.T) {
	raw := "GET /index.html HTTP/1.1\r\n" +
		"host: example.com\r\n" +
		"User-Agent: curl/8.0\r\n" +
		"CONNECTION: Keep-Alive\r\n" +
		"If-None-Match: W/\"10-20\"\r\n" +
		"Accept-Encoding: gzip;q=1.0, deflate , br\r\n" +
		"X-Ignored: yes\r\n" +
		"\r\n"

	req, err := NewReader(strings.NewReader(raw)).ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.Method != "GET" || req.Path != "/index.html" || req.Version != "HTTP/1.1" {
		t.Fatalf("bad request line: %+v", req)
	}
	if req.Host != "example.com" || req.UserAgent != "curl/8.0" {
		t.Fatalf("bad headers: host=%q ua=%q", req.Host, req.UserAgent)
	}
	if !req.KeepAlive {
		t.Fatalf("expected keep-alive")
	}
	if req.IfNoneMatch != `W/"10-20"` {
		t.Fatalf("unexpected If-None-Match: %q", req.IfNoneMatch)
	}
	if got := strings.Join(req.Encodings, ","); got != "gzip,deflate,br" {
		t.Fatalf("unexpected encodings: %q", got)
	}
	if !req.AcceptsGzip() {
		t.Fatalf("expected gzip accepted")
	}
	if req.RemoteAddr != peer {
		t.Fatalf("remote addr not recorded")
	}
	if req.Body != nil {
		t.Fatalf("expected no body")
	}
}

func TestReadRequest_ConnectionCloseIsNotKeepAlive(t *testing.T) {
	req, err := NewReader(strings.NewReader("GET / HTTP/1.1\r\nConnection: close\r\n\r\n")).ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.KeepAlive {
		t.Fatalf("expected keep-alive off")
	}
}

func TestReadRequest_TruncatesLongFields(t *testing.T) {
	longPath := "/" + strings.Repeat("a", 3000)
	raw := "GETTTTTTTTTTTTTTTTTTTTT " + longPath + " HTTP/1.1\r\nHost: " + strings.Repeat("h", 400) + "\r\n\r\n"

	r := NewReader(strings.NewReader(raw))
	r.MaxHeaderBytes = 16 << 10
	req, err := r.ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if len(req.Method) != MaxMethodLen {
		t.Fatalf("method not truncated: %d", len(req.Method))
	}
	if len(req.Path) != MaxPathLen {
		t.Fatalf("path not truncated: %d", len(req.Path))
	}
	if len(req.Host) != MaxHostLen {
		t.Fatalf("host not truncated: %d", len(req.Host))
	}
}

func TestReadRequest_BodyAcrossReads(t *testing.T) {
	body := strings.Repeat("x", 5000)
	raw := "POST /upload HTTP/1.1\r\nContent-Length: 5000\r\nContent-Type: text/plain\r\n\r\n" + body +
		"GET /next HTTP/1.1\r\n\r\n"

	// um byte por vez força o corpo a chegar em várias leituras
	r := NewReader(&oneByteReader{s: raw})
	req, err := r.ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if string(req.Body) != body || req.ContentLength != 5000 || req.ContentType != "text/plain" {
		t.Fatalf("body not reassembled: len=%d", len(req.Body))
	}

	next, err := r.ReadRequest(peer)
	if err != nil {
		t.Fatalf("second ReadRequest: %v", err)
	}
	if next.Path != "/next" {
		t.Fatalf("next request swallowed, got path %q", next.Path)
	}
}

func TestReadRequest_InvalidContentLengthIsZero(t *testing.T) {
	req, err := NewReader(strings.NewReader("POST / HTTP/1.1\r\nContent-Length: abc\r\n\r\n")).ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.ContentLength != 0 || req.Body != nil {
		t.Fatalf("expected zero length, got %d", req.ContentLength)
	}
}

func TestReadRequest_PartialRequestLine(t *testing.T) {
	cases := []struct {
		raw                   string
		method, path, version string
	}{
		{"GET /\r\n\r\n", "GET", "/", ""},
		{"FOO\r\n\r\n", "FOO", "", ""},
		{"GET / \r\nHost: x\r\n\r\n", "GET", "/", ""},
	}
	for _, c := range cases {
		req, err := NewReader(strings.NewReader(c.raw)).ReadRequest(peer)
		if err != nil {
			t.Fatalf("%q: ReadRequest: %v", c.raw, err)
		}
		if req.Method != c.method || req.Path != c.path || req.Version != c.version {
			t.Fatalf("%q: got %q %q %q", c.raw, req.Method, req.Path, req.Version)
		}
	}
}

func TestReadRequest_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		max  int
		want error
	}{
		{"empty", "", 0, ErrConnClosed},
		{"cut in headers", "GET / HTTP/1.1\r\nHost: x", 0, ErrMalformed},
		{"cut in body", "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc", 0, ErrMalformed},
		{"header too large", "GET / HTTP/1.1\r\nX: " + strings.Repeat("a", 200) + "\r\n\r\n", 64, ErrHeaderTooLarge},
		{"body too large", "POST / HTTP/1.1\r\nContent-Length: 2000000\r\n\r\n", 0, ErrBodyTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(c.raw))
			if c.max > 0 {
				r.MaxHeaderBytes = c.max
			}
			_, err := r.ReadRequest(peer)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestReadRequest_Timeout(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	_ = srv.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	_, err := NewReader(srv).ReadRequest(peer)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestReadRequest_SkipsLeadingBlankLines(t *testing.T) {
	req, err := NewReader(strings.NewReader("\r\n\r\nHEAD /a HTTP/1.0\r\n\r\n")).ReadRequest(peer)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.Method != "HEAD" || req.Version != "HTTP/1.0" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

type oneByteReader struct {
	s string
	i int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.s[r.i]
	r.i++
	return 1, nil
}
