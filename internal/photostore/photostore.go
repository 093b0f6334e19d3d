package photostore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("photo not found")

// PhotoStore keeps uploaded customer photos under generated unique names.
//
// Delete must treat an empty or unknown name as a successful no-op.
type PhotoStore interface {
	Store(ctx context.Context, originalName string, r io.Reader) (storedName string, err error)
	Delete(ctx context.Context, storedName string) error
	Load(ctx context.Context, storedName string) (io.ReadCloser, error)
}

// NewName returns a collision-resistant stored name derived from the name the
// client uploaded the file with.
func NewName(originalName string) string {
	return uuid.NewString() + "_" + SanitizeName(originalName)
}

// SanitizeName keeps only the base name and drops whitespace.
func SanitizeName(originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" || base == ".." {
		return "foto"
	}
	return base
}
