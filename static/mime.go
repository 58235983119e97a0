package static

import (
	"path/filepath"
	"strings"

	"static-httpd/httpwire"
)

var mimeByExt = map[string]string{
	"html": httpwire.MIMEHTML,
	"htm":  httpwire.MIMEHTML,
	"txt":  httpwire.MIMEText,
	"css":  httpwire.MIMECSS,
	"js":   httpwire.MIMEJS,
	"json": httpwire.MIMEJSON,
	"jpg":  httpwire.MIMEJPEG,
	"jpeg": httpwire.MIMEJPEG,
	"png":  httpwire.MIMEPNG,
	"gif":  httpwire.MIMEGIF,
	"svg":  httpwire.MIMESVG,
}

// MIMEType busca pela extensão sem diferenciar caixa. Desconhecida vira octet-stream.
func MIMEType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ct, ok := mimeByExt[strings.ToLower(ext)]; ok {
		return ct
	}
	return httpwire.MIMEBinary
}
