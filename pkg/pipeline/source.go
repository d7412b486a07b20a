package pipeline

import (
	"os"
	"path/filepath"

	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Source is a configuration document as read, before decoding. Plans are
// cached by the hash of its bytes.
type Source struct {
	Name   string
	Format config.Format
	Data   []byte
}

// NewSource wraps an in-memory document.
func NewSource(name string, format config.Format, data []byte) *Source {
	return &Source{Name: name, Format: format, Data: data}
}

// LoadSource reads the document at path, inferring its format from the
// extension.
func LoadSource(path string) (*Source, error) {
	format, err := config.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return NewSource(filepath.Base(path), format, data), nil
}

// Decode parses the document.
func (s *Source) Decode() (*config.File, error) {
	return config.Decode(s.Data, s.Format)
}

// Hash returns the content hash of the document and its format.
func (s *Source) Hash() string {
	data := make([]byte, 0, len(s.Format)+1+len(s.Data))
	data = append(data, s.Format...)
	data = append(data, 0)
	data = append(data, s.Data...)
	return cache.Hash(data)
}
