package model

// Default is the process-wide registry. Provider implementations register
// themselves here, typically from an init function, the way database/sql
// drivers do.
var Default = NewRegistry()

// Register adds a provider to the default registry.
func Register(p Provider) error {
	return Default.Register(p)
}

// Get looks up a provider in the default registry.
func Get(name string) (Provider, error) {
	return Default.Get(name)
}
