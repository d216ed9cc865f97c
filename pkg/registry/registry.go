// Package registry builds the ordered set of sources known to mrdev.
//
// Sources are defined by specification strings such as:
//
//	git https://github.com/fschulze/mr.developer.git branch=master pushurl=git@github.com:fschulze/mr.developer.git
//
// Specifications are usually read from a buildout-like ini file (see LoadFile).
package registry

import (
	"path/filepath"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
)

// Registry is an ordered mapping from package names to sources.
//
// A registry is built once, then only read: it is safe for concurrent reads.
type Registry struct {
	sources *linkedhashmap.Map
	paths   map[string]string
}

// New builds an empty registry
func New() *Registry {
	return &Registry{
		sources: linkedhashmap.New(),
		paths:   make(map[string]string),
	}
}

// Add registers a source. Names and working copy paths must be unique.
func (r *Registry) Add(src model.Source) error {
	if _, found := r.sources.Get(src.Name); found {
		return errors.Errorf("duplicate source definition for %q", src.Name).Wrap(model.ErrConfiguration)
	}
	if src.Path != "" {
		p := filepath.Clean(src.Path)
		if other, found := r.paths[p]; found {
			return errors.Errorf("sources %q and %q share the same working copy path %q", other, src.Name, p).
				Wrap(model.ErrConfiguration)
		}
		r.paths[p] = src.Name
	}
	r.sources.Put(src.Name, src.Clone())
	return nil
}

// Get a source by name
func (r *Registry) Get(name string) (model.Source, bool) {
	v, found := r.sources.Get(name)
	if !found {
		return model.Source{}, false
	}
	return v.(model.Source).Clone(), true
}

// Has tells if a source is defined
func (r *Registry) Has(name string) bool {
	_, found := r.sources.Get(name)
	return found
}

// Names of all sources, in declaration order
func (r *Registry) Names() []string {
	keys := r.sources.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.(string))
	}
	return names
}

// Sources returns all sources, in declaration order
func (r *Registry) Sources() []model.Source {
	values := r.sources.Values()
	sources := make([]model.Source, 0, len(values))
	for _, v := range values {
		sources = append(sources, v.(model.Source).Clone())
	}
	return sources
}

// Len is the number of registered sources
func (r *Registry) Len() int {
	return r.sources.Size()
}
