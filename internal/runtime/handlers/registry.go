package handlers

import (
	"fmt"
	"slices"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

// Param declares one named argument of a handler.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Arg declares a parameter without a default.
func Arg(name string) Param {
	return Param{Name: name}
}

// ArgDefault declares a parameter bound to value when the message lacks it.
func ArgDefault(name string, value any) Param {
	return Param{Name: name, Default: value, HasDefault: true}
}

// Route attaches a tag-set to handlers. A Route only carries routing
// metadata and can be reused for several handlers:
//
//	ping := handlers.On("ping")
//	regs := []handlers.Registration{
//	    ping.Handle("pong", pong, handlers.Arg("sender")),
//	}
type Route struct {
	tags tags.Set
}

// On returns a Route requiring the given tags. On() with no tags declares the
// default handler, which receives untagged messages.
func On(tagList ...string) Route {
	return Route{tags: tags.New(tagList...)}
}

// Tags returns the tag-set required by the route.
func (r Route) Tags() tags.Set {
	return r.tags
}

// Handle binds fn to the route under name.
func (r Route) Handle(name string, fn HandlerFunc, params ...Param) Registration {
	return Registration{
		Name:    name,
		Tags:    r.tags,
		Handler: fn,
		Params:  slices.Clone(params),
	}
}

// Registration is one entry of a registration table.
type Registration struct {
	Name    string
	Tags    tags.Set
	Handler HandlerFunc
	Params  []Param
}

// Provider is implemented by objects that expose their handlers, the way an
// agent groups related handlers on one value.
type Provider interface {
	Registrations() []Registration
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() []Registration

// Registrations implements Provider.
func (f ProviderFunc) Registrations() []Registration {
	return f()
}

// Descriptor is a registered handler. Descriptors are immutable once the
// registry is built.
type Descriptor struct {
	name     string
	tags     tags.Set
	handler  HandlerFunc
	params   []Param
	defaults map[string]any
}

func (d *Descriptor) Name() string         { return d.name }
func (d *Descriptor) Tags() tags.Set       { return slices.Clone(d.tags) }
func (d *Descriptor) Handler() HandlerFunc { return d.handler }

// Params returns the declared parameter names in order.
func (d *Descriptor) Params() []string {
	names := make([]string, len(d.params))
	for i, p := range d.params {
		names[i] = p.Name
	}
	return names
}

// Default returns the declared default of a parameter.
func (d *Descriptor) Default(name string) (any, bool) {
	v, ok := d.defaults[name]
	return v, ok
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s%s", d.name, d.tags)
}

// Registry is the ordered list of candidate handlers of a listener.
type Registry struct {
	candidates []*Descriptor
	byName     map[string]*Descriptor
}

// Scan builds a registry from the registrations exposed by p.
func Scan(p Provider) (*Registry, error) {
	if p == nil {
		return nil, errspkg.ErrProviderRequired
	}
	return Build(p.Registrations()...)
}

// Build builds a registry from registrations, keeping their order. An empty
// registry is valid: every message then misses.
func Build(regs ...Registration) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(regs))}
	for _, reg := range regs {
		d, err := newDescriptor(reg)
		if err != nil {
			return nil, err
		}
		if _, exists := r.byName[d.name]; exists {
			return nil, fmt.Errorf("%w: %s", errspkg.ErrDuplicateHandler, d.name)
		}
		r.byName[d.name] = d
		r.candidates = append(r.candidates, d)
	}
	return r, nil
}

func newDescriptor(reg Registration) (*Descriptor, error) {
	if reg.Name == "" {
		return nil, errspkg.ErrHandlerNameNeeded
	}
	if reg.Handler == nil {
		return nil, fmt.Errorf("%w: %s", errspkg.ErrHandlerRequired, reg.Name)
	}

	d := &Descriptor{
		name:     reg.Name,
		tags:     tags.New(reg.Tags...),
		handler:  reg.Handler,
		params:   slices.Clone(reg.Params),
		defaults: make(map[string]any),
	}

	seen := make(map[string]struct{}, len(reg.Params))
	for _, p := range reg.Params {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", errspkg.ErrDuplicateParam, reg.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.HasDefault {
			d.defaults[p.Name] = p.Default
		}
	}
	return d, nil
}

// Candidates returns the descriptors in registration order.
func (r *Registry) Candidates() []*Descriptor {
	if r == nil {
		return nil
	}
	return slices.Clone(r.candidates)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.candidates)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.byName[name]
	return d, ok
}
