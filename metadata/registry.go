package metadata

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/gaborage/sqlexpr/sqlerr"
	"golang.org/x/sync/singleflight"
)

// Resolver maintains a cache of entity metadata per struct type.
// It uses lazy initialization: struct types are parsed on first use and cached forever.
//
// Thread-safety: cached reads are lock-free (sync.Map); concurrent first uses of the same
// type share one parse through singleflight.
type Resolver struct {
	naming Naming
	cache  sync.Map // map[reflect.Type]*Entity
	group  singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNaming sets the fallback naming strategy.
func WithNaming(n Naming) Option {
	return func(r *Resolver) {
		r.naming = n
	}
}

// NewResolver creates an empty resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Default returns the process-wide resolver using NamingNone.
func Default() *Resolver {
	return defaultResolver
}

// Naming returns the resolver's fallback naming strategy.
func (r *Resolver) Naming() Naming {
	return r.naming
}

// Entity retrieves metadata for t (a struct or pointer-to-struct type), parsing on first use.
func (r *Resolver) Entity(t reflect.Type) (*Entity, error) {
	if t == nil {
		return nil, sqlerr.InvalidUsage("metadata.Entity", "entity type is nil")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	// Fast path: check cache first
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*Entity), nil
	}

	// Slow path: one parse per type even under concurrent first use
	key := t.PkgPath() + "." + t.String() + "#" + strconv.Itoa(int(r.naming))
	v, err, _ := r.group.Do(key, func() (any, error) {
		if cached, ok := r.cache.Load(t); ok {
			return cached, nil
		}
		entity, err := parseEntity(t, r.naming)
		if err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(t, entity)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entity), nil
}

// TableName returns the schema-qualified, unquoted table name of t.
func (r *Resolver) TableName(t reflect.Type) (string, error) {
	e, err := r.Entity(t)
	if err != nil {
		return "", err
	}
	return e.Table.QualifiedName(), nil
}

// Column returns the metadata of one field of t.
func (r *Resolver) Column(t reflect.Type, fieldName string) (ColumnInfo, error) {
	e, err := r.Entity(t)
	if err != nil {
		return ColumnInfo{}, err
	}
	col, ok := e.Column(fieldName)
	if !ok {
		return ColumnInfo{}, sqlerr.InvalidUsage("metadata.Column",
			"field %q not found in type %s (available fields: %s)", fieldName, e.Type.Name(), e.availableFieldsForError())
	}
	return col, nil
}

// PrimaryKeys returns the primary-key columns of t in declaration order.
func (r *Resolver) PrimaryKeys(t reflect.Type) ([]ColumnInfo, error) {
	e, err := r.Entity(t)
	if err != nil {
		return nil, err
	}
	return e.Keys(), nil
}

// Clear removes all cached metadata.
// WARNING: Only call this in tests, not production code.
func (r *Resolver) Clear() {
	r.cache.Range(func(k, _ any) bool {
		r.cache.Delete(k)
		return true
	})
}

// TypeOf returns the reflect.Type of T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
