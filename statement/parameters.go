package statement

import "github.com/gaborage/sqlexpr/metadata"

// Parameter is one bound value. DataType is nil until declared by metadata or re-typing.
type Parameter struct {
	Name     string
	Value    any
	DataType *metadata.DataType
}

// Parameters is an ordered name -> parameter map.
type Parameters struct {
	items []*Parameter
	index map[string]int
}

// NewParameters creates an empty parameter set.
func NewParameters() *Parameters {
	return &Parameters{index: make(map[string]int)}
}

// Add records a parameter. Re-adding a name replaces its value and type in place.
func (p *Parameters) Add(name string, value any, dataType *metadata.DataType) {
	if i, ok := p.index[name]; ok {
		p.items[i] = &Parameter{Name: name, Value: value, DataType: dataType}
		return
	}
	p.index[name] = len(p.items)
	p.items = append(p.items, &Parameter{Name: name, Value: value, DataType: dataType})
}

// Get returns a copy of the named parameter.
func (p *Parameters) Get(name string) (Parameter, bool) {
	if p == nil {
		return Parameter{}, false
	}
	i, ok := p.index[name]
	if !ok {
		return Parameter{}, false
	}
	return *p.items[i], true
}

// SetDataType declares the type of an existing parameter.
func (p *Parameters) SetDataType(name string, dataType *metadata.DataType) bool {
	i, ok := p.index[name]
	if !ok {
		return false
	}
	p.items[i].DataType = dataType
	return true
}

// Len returns the number of parameters.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Names returns parameter names in insertion order.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.items))
	for i, item := range p.items {
		names[i] = item.Name
	}
	return names
}

// All returns copies of the parameters in insertion order.
func (p *Parameters) All() []Parameter {
	if p == nil {
		return nil
	}
	out := make([]Parameter, len(p.items))
	for i, item := range p.items {
		out[i] = *item
	}
	return out
}

// Map returns the dialect-agnostic name -> value view.
func (p *Parameters) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for _, item := range p.items {
		out[item.Name] = item.Value
	}
	return out
}

// Merge adds every parameter of other, replacing duplicates.
func (p *Parameters) Merge(other *Parameters) {
	if other == nil {
		return
	}
	for _, item := range other.items {
		p.Add(item.Name, item.Value, item.DataType)
	}
}

// Clone returns an independent copy.
func (p *Parameters) Clone() *Parameters {
	out := NewParameters()
	out.Merge(p)
	return out
}
