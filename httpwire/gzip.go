package httpwire

import (
	"bytes"
	"errors"

	"github.com/klauspost/compress/gzip"
)

// Compressor devolve o corpo comprimido.
type Compressor interface {
	Compress(p []byte) ([]byte, error)
}

// GzipCompressor comprime com klauspost/compress no nível dado.
type GzipCompressor struct {
	Level int
}

func NewGzipCompressor() GzipCompressor {
	return GzipCompressor{Level: gzip.DefaultCompression}
}

func (g GzipCompressor) Compress(p []byte) ([]byte, error) {
	if len(p) == 0 {
		return nil, errors.New("httpwire: empty body")
	}
	var buf bytes.Buffer
	buf.Grow(len(p)/2 + 32)
	zw, err := gzip.NewWriterLevel(&buf, g.Level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(p); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
