package building

import (
	"slices"
	"strconv"
	"sync"

	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Library holds the config files buildings and block groups are looked up
// in. Lookups scan files in the order they were first added and return the
// first match, so a block group id may be shared between files.
//
// A Library is safe for concurrent use.
type Library struct {
	mu    sync.RWMutex
	names []string
	files map[string]*config.File
}

// NewLibrary returns a library holding files, registered under "0", "1",
// and so on.
func NewLibrary(files ...*config.File) *Library {
	l := &Library{files: make(map[string]*config.File)}
	for i, f := range files {
		l.Add(strconv.Itoa(i), f)
	}
	return l
}

// Add registers f under name. Adding a name twice replaces the earlier
// file and keeps its position in the lookup order.
func (l *Library) Add(name string, f *config.File) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.files[name]; !ok {
		l.names = append(l.names, name)
	}
	l.files[name] = f
}

// Names returns the registered names in lookup order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.names)
}

// Building finds a building and the file declaring it. An empty id selects
// the first building of the first file that has one.
func (l *Library) Building(id string) (*config.Building, *config.File, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, name := range l.names {
		f := l.files[name]
		if id == "" && len(f.Buildings) > 0 {
			return &f.Buildings[0], f, nil
		}
		if b, ok := f.Building(id); ok {
			return b, f, nil
		}
	}
	if id == "" {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "no buildings defined")
	}
	return nil, nil, errors.New(errors.ErrCodeNotFound, "building %q not found", id)
}

// BlockGroup finds a block group by id.
func (l *Library) BlockGroup(id string) (*config.BlockGroup, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, name := range l.names {
		if g, ok := l.files[name].BlockGroup(id); ok {
			return g, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "block group %q not found", id)
}

// Buildings lists every building id in lookup order. Ids shadowed by an
// earlier file are listed once.
func (l *Library) Buildings() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []string
	seen := make(map[string]bool)
	for _, name := range l.names {
		for _, b := range l.files[name].Buildings {
			if !seen[b.ID] {
				seen[b.ID] = true
				ids = append(ids, b.ID)
			}
		}
	}
	return ids
}
