package di

import "fmt"

// Token names a service and carries its type.
type Token[T any] struct {
	name string
}

// NewToken creates a token for name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a lazily built service for token.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// RegisterValue registers an already built service for token.
func RegisterValue[T any](c Container, token Token[T], v T) {
	c.Register(token.name, v)
}

// GetToken resolves token, panicking if the stored value has another type.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v := sr.Get(token.name)
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T", token.name, v))
	}
	return t
}
