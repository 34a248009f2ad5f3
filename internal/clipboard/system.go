package clipboard

import (
	"context"

	"github.com/atotto/clipboard"
)

// SystemReader reads the operating system clipboard
type SystemReader struct{}

// ReadText returns the clipboard text
func (SystemReader) ReadText(context.Context) (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	return clipboard.ReadAll()
}

// Available reports whether the platform has a usable clipboard tool
func Available() bool {
	return !clipboard.Unsupported
}
