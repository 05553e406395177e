package blockdata

import (
	"fmt"
	"strings"
)

// Key is a namespaced block data key, rendered "namespace:name".
type Key struct {
	Namespace string
	Name      string
}

// NewKey validates and builds a key. Both parts must be non-empty and use
// only lower-case letters, digits, '_', '-', '.' and '/'.
func NewKey(namespace, name string) (Key, error) {
	if !validKeyPart(namespace) {
		return Key{}, fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}
	if !validKeyPart(name) {
		return Key{}, fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	return Key{Namespace: namespace, Name: name}, nil
}

// MustKey is NewKey for package-level constants; it panics on invalid input.
func MustKey(namespace, name string) Key {
	k, err := NewKey(namespace, name)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey parses "namespace:name".
func ParseKey(s string) (Key, error) {
	ns, name, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q has no namespace", ErrInvalidKey, s)
	}
	return NewKey(ns, name)
}

// String renders "namespace:name".
func (k Key) String() string {
	return k.Namespace + ":" + k.Name
}

func validKeyPart(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '/':
		default:
			return false
		}
	}
	return true
}
