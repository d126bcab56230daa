package domain

import "time"

// DefaultClassName is the class applied when a caller references an
// unknown limit class.
const DefaultClassName = "default"

// LimitClass describes a named quota profile: how many requests are
// admitted per fixed window.
type LimitClass struct {
	Name        string        `json:"name"`
	Window      time.Duration `json:"window"`
	MaxRequests int           `json:"max_requests"`
}

// BuiltinClasses returns the limit classes the service ships with.
func BuiltinClasses() []LimitClass {
	return []LimitClass{
		{Name: DefaultClassName, Window: time.Minute, MaxRequests: 100},
		{Name: "auth", Window: 5 * time.Minute, MaxRequests: 10},
		{Name: "api", Window: time.Minute, MaxRequests: 60},
		{Name: "heavy", Window: time.Minute, MaxRequests: 10},
		{Name: "realtime", Window: time.Second, MaxRequests: 20},
	}
}

// ClassRegistry is an immutable lookup table of limit classes. It is built
// once at startup and only read afterwards, so it needs no locking.
type ClassRegistry struct {
	classes map[string]LimitClass
	order   []string
}

// NewClassRegistry builds a registry from the provided classes. Classes
// with a non-positive window or quota are ignored. A "default" class is
// always present; when absent from the input the builtin default is used.
func NewClassRegistry(classes ...LimitClass) *ClassRegistry {
	r := &ClassRegistry{classes: make(map[string]LimitClass, len(classes))}

	for _, cls := range classes {
		if cls.Name == "" || cls.Window <= 0 || cls.MaxRequests <= 0 {
			continue
		}
		if _, exists := r.classes[cls.Name]; !exists {
			r.order = append(r.order, cls.Name)
		}
		r.classes[cls.Name] = cls
	}

	if _, ok := r.classes[DefaultClassName]; !ok {
		r.classes[DefaultClassName] = BuiltinClasses()[0]
		r.order = append([]string{DefaultClassName}, r.order...)
	}

	return r
}

// DefaultClassRegistry returns a registry holding only the builtin classes.
func DefaultClassRegistry() *ClassRegistry {
	return NewClassRegistry(BuiltinClasses()...)
}

// Get resolves a class by name, falling back to the default class for
// unrecognized names. It never fails.
func (r *ClassRegistry) Get(name string) LimitClass {
	if cls, ok := r.classes[name]; ok {
		return cls
	}
	return r.classes[DefaultClassName]
}

// All returns every registered class in registration order.
func (r *ClassRegistry) All() []LimitClass {
	out := make([]LimitClass, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}
