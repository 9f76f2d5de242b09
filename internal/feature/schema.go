// Package feature builds fixed-length numeric vectors from raw match
// context maps. Each league declares a schema; extraction is a pure,
// deterministic function of the schema and the context.
package feature

// Transform is applied to a raw context value before it enters the vector
type Transform int

const (
	// TransformNone passes the raw value through
	TransformNone Transform = iota
	// TransformLog1p compresses heavy-tailed magnitudes (squad values, volumes)
	TransformLog1p
	// TransformClamp01 clamps rates and shares into [0,1]
	TransformClamp01
)

// FeatureSpec declares one feature: the context key it reads, the default
// used when the key is missing and the transform applied to the value.
type FeatureSpec struct {
	Key       string
	Default   float64
	Transform Transform
}

// FeatureDomain is a named, stable-ordered group of features
type FeatureDomain struct {
	Name     string
	Features []FeatureSpec
}

// Schema is a league's complete feature layout. Domain and feature order is
// the vector order; it never changes for a trained model version.
type Schema struct {
	League  string
	Domains []FeatureDomain
}

// Length returns the fixed vector length the schema produces
func (s *Schema) Length() int {
	n := 0
	for _, d := range s.Domains {
		n += len(d.Features)
	}
	return n
}

// Keys returns every feature key in vector order
func (s *Schema) Keys() []string {
	keys := make([]string, 0, s.Length())
	for _, d := range s.Domains {
		for _, f := range d.Features {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// DomainNames returns the ordered domain names
func (s *Schema) DomainNames() []string {
	names := make([]string, 0, len(s.Domains))
	for _, d := range s.Domains {
		names = append(names, d.Name)
	}
	return names
}
