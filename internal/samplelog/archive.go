package samplelog

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// compressInto streams src through gzip into dst at the default level.
func compressInto(dst io.Writer, src io.Reader) error {
	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
