package httpwire

import "errors"

var (
	// ErrConnClosed: o cliente fechou a conexão antes de enviar qualquer byte.
	ErrConnClosed     = errors.New("httpwire: connection closed")
	ErrTimeout        = errors.New("httpwire: read timeout")
	ErrMalformed      = errors.New("httpwire: malformed request")
	ErrHeaderTooLarge = errors.New("httpwire: header block too large")
	ErrBodyTooLarge   = errors.New("httpwire: body too large")
)
