package httpwire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Limites de tamanho dos campos. Valores maiores são truncados, não rejeitados.
const (
	MaxMethodLen         = 15
	MaxPathLen           = 2047
	MaxVersionLen        = 15
	MaxHostLen           = 254
	MaxUserAgentLen      = 511
	MaxIfNoneMatchLen    = 127
	MaxAcceptEncodingLen = 127
)

const (
	DefaultMaxHeaderBytes = 8192
	DefaultMaxBodyBytes   = 1 << 20
)

// Request é uma requisição já parseada. Não muda depois que ReadRequest retorna.
type Request struct {
	Method         string
	Path           string
	Version        string
	Host           string
	UserAgent      string
	ContentLength  int
	ContentType    string
	Body           []byte
	KeepAlive      bool
	IfNoneMatch    string
	AcceptEncoding string
	// Encodings: AcceptEncoding separado em minúsculas, sem q-values.
	Encodings  []string
	RemoteAddr net.Addr
}

// AcceptsGzip indica se o cliente aceita gzip.
func (r *Request) AcceptsGzip() bool {
	if r == nil {
		return false
	}
	for _, e := range r.Encodings {
		if e == "gzip" || e == "x-gzip" {
			return true
		}
	}
	return false
}

// Reader parseia as requisições de uma conexão. O buffer sobrevive entre
// chamadas, então uma conexão keep-alive usa o mesmo Reader do início ao fim.
type Reader struct {
	br             *bufio.Reader
	MaxHeaderBytes int
	MaxBodyBytes   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		br:             bufio.NewReaderSize(r, 4096),
		MaxHeaderBytes: DefaultMaxHeaderBytes,
		MaxBodyBytes:   DefaultMaxBodyBytes,
	}
}

// ReadRequest lê a próxima requisição. Os erros são ErrConnClosed, ErrTimeout,
// ErrMalformed, ErrHeaderTooLarge, ErrBodyTooLarge ou erro de I/O.
func (r *Reader) ReadRequest(remote net.Addr) (*Request, error) {
	budget := r.MaxHeaderBytes
	if budget <= 0 {
		budget = DefaultMaxHeaderBytes
	}
	first := true

	var line string
	for {
		l, n, err := r.readLine(budget)
		budget -= n
		if err != nil {
			return nil, r.classify(err, first && n == 0)
		}
		first = false
		// CRLFs soltos entre requisições keep-alive são ignorados
		if l != "" {
			line = l
			break
		}
	}

	// linha incompleta não é erro: campos ausentes ficam vazios e o handler decide (405/404)
	fields := strings.Fields(line)
	req := &Request{RemoteAddr: remote}
	if len(fields) > 0 {
		req.Method = truncate(fields[0], MaxMethodLen)
	}
	if len(fields) > 1 {
		req.Path = truncate(fields[1], MaxPathLen)
	}
	if len(fields) > 2 {
		req.Version = truncate(fields[2], MaxVersionLen)
	}

	for {
		l, n, err := r.readLine(budget)
		budget -= n
		if err != nil {
			return nil, r.classify(err, false)
		}
		if l == "" {
			break
		}
		req.setHeader(l)
	}

	if req.ContentLength > 0 {
		maxBody := r.MaxBodyBytes
		if maxBody <= 0 {
			maxBody = DefaultMaxBodyBytes
		}
		if req.ContentLength > maxBody {
			return nil, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, req.ContentLength, maxBody)
		}
		req.Body = make([]byte, req.ContentLength)
		if _, err := io.ReadFull(r.br, req.Body); err != nil {
			return nil, r.classify(err, false)
		}
	}
	return req, nil
}

func (req *Request) setHeader(line string) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return
	}
	name := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])

	switch {
	case strings.EqualFold(name, "Host"):
		req.Host = truncate(value, MaxHostLen)
	case strings.EqualFold(name, "User-Agent"):
		req.UserAgent = truncate(value, MaxUserAgentLen)
	case strings.EqualFold(name, "Content-Length"):
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			n = 0
		}
		req.ContentLength = n
	case strings.EqualFold(name, "Content-Type"):
		req.ContentType = value
	case strings.EqualFold(name, "Connection"):
		req.KeepAlive = strings.Contains(strings.ToLower(value), "keep-alive")
	case strings.EqualFold(name, "If-None-Match"):
		req.IfNoneMatch = truncate(value, MaxIfNoneMatchLen)
	case strings.EqualFold(name, "Accept-Encoding"):
		req.AcceptEncoding = truncate(value, MaxAcceptEncodingLen)
		req.Encodings = splitEncodings(req.AcceptEncoding)
	}
}

func splitEncodings(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if i := strings.IndexByte(part, ';'); i >= 0 {
			part = part[:i]
		}
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readLine devolve a linha sem CRLF e quantos bytes consumiu.
func (r *Reader) readLine(budget int) (string, int, error) {
	var sb strings.Builder
	n := 0
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return "", n, err
		}
		n++
		if n > budget {
			return "", n, ErrHeaderTooLarge
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
	}
	return sb.String(), n, nil
}

func (r *Reader) classify(err error, nothingRead bool) error {
	var ne net.Error
	switch {
	case errors.Is(err, ErrHeaderTooLarge):
		return err
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, io.EOF) && nothingRead:
		return ErrConnClosed
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
	default:
		return err
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
