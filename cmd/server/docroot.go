package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultIndex = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>static-httpd</title>
</head>
<body>
    <h1>static-httpd is running</h1>
    <p>Put your files in the document root to serve them.</p>
    <ul>
        <li>Fixed worker pool with a bounded queue</li>
        <li>Keep-alive connections</li>
        <li>HTTP caching with ETags</li>
        <li>GZIP compression</li>
        <li>Per-client rate limiting</li>
    </ul>
</body>
</html>
`

// seedDocRoot cria o diretório e um index.html padrão se ainda não existir.
// Um index.html existente nunca é sobrescrito.
func seedDocRoot(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	index := filepath.Join(root, "index.html")
	_, err := os.Stat(index)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", index, err)
	}
	return os.WriteFile(index, []byte(defaultIndex), 0o644)
}
