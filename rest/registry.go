// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// A Registry caches parsed interfaces by name.
//
// The zero value is ready to use. A Registry is safe for concurrent use
// by multiple goroutines.
type Registry struct {
	interfaces sync.Map // string -> *Interface
	group      singleflight.Group
}

// DefaultRegistry is the Registry used by Service values created with
// NewService.
var DefaultRegistry = &Registry{}

// Load returns the Interface cached under d.Name, parsing d and caching
// the result if there is none yet. Concurrent loads of the same name
// parse the descriptor once, and all of them return the same Interface.
//
// The first descriptor loaded under a name wins. Once a name is cached,
// Load returns the cached Interface without looking at d, even if d
// describes different methods or a different host. Call Forget first
// to replace it.
//
// Parse errors are returned but never cached, so a corrected descriptor
// may be loaded later under the same name.
func (r *Registry) Load(d InterfaceDescriptor) (*Interface, error) {
	if v, ok := r.interfaces.Load(d.Name); ok {
		return v.(*Interface), nil
	}
	v, err, _ := r.group.Do(d.Name, func() (interface{}, error) {
		if v, ok := r.interfaces.Load(d.Name); ok {
			return v, nil
		}
		i, err := Parse(d)
		if err != nil {
			return nil, err
		}
		v, _ := r.interfaces.LoadOrStore(d.Name, i)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Interface), nil
}

// Lookup returns the Interface cached under name, if any.
func (r *Registry) Lookup(name string) (*Interface, bool) {
	v, ok := r.interfaces.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Interface), true
}

// Forget removes the Interface cached under name.
func (r *Registry) Forget(name string) {
	r.interfaces.Delete(name)
	r.group.Forget(name)
}
