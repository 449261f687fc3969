package physics

import "github.com/san-kum/sensim/internal/dynamo"

// fieldSet binds a model's parameter names to its fields.
type fieldSet struct {
	model  string
	fields map[string]*float64
}

func (f fieldSet) values() map[string]float64 {
	out := make(map[string]float64, len(f.fields))
	for name, p := range f.fields {
		out[name] = *p
	}
	return out
}

func (f fieldSet) set(name string, value float64) error {
	p, ok := f.fields[name]
	if !ok {
		return dynamo.UnknownParameter(f.model, name)
	}
	*p = value
	return nil
}
