/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"maps"
	"path"
	"slices"
	"sync"
)

// Observer receives what a check concludes about one subject.
type Observer interface {
	// Fail marks the subject as not passing a boolean check. A check calls
	// it at most once per subject.
	Fail(string)
	// Log records a diagnostic message.
	Log(string)
	// Grade records the check's value for the subject. A check calls it at
	// most once per subject.
	Grade(score float64, reasoning string)
	// Increment counts one more subject evaluated.
	Increment()
	// Total is the number of subjects evaluated.
	Total() int64
}

// Namespace is one node of a tree of check namespaces such as
// "/exact_match" or "/exact_match/retry". Every node owns its own observer.
type Namespace[T Observer] struct {
	name     string
	observer T
	factory  func(string) T

	mu       sync.Mutex
	children map[string]*Namespace[T]
}

// NewNamespaceTree returns the root namespace "/". factory builds the
// observer of every namespace from its path.
func NewNamespaceTree[T Observer](factory func(string) T) *Namespace[T] {
	return newNamespace("/", factory)
}

func newNamespace[T Observer](name string, factory func(string) T) *Namespace[T] {
	return &Namespace[T]{
		name:     name,
		observer: factory(name),
		factory:  factory,
		children: map[string]*Namespace[T]{},
	}
}

// Name is the namespace path.
func (n *Namespace[T]) Name() string { return n.name }

// Observer is the observer that receives this namespace's evaluations.
func (n *Namespace[T]) Observer() T { return n.observer }

// Child returns the namespace of the named check below n, creating it on
// first use.
func (n *Namespace[T]) Child(check string) *Namespace[T] {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.children[check]; ok {
		return c
	}
	c := newNamespace(path.Join(n.name, check), n.factory)
	n.children[check] = c
	return c
}

// Walk visits n and then its descendants depth first, siblings in name order.
func (n *Namespace[T]) Walk(visit func(name string, observer T)) {
	visit(n.name, n.observer)

	n.mu.Lock()
	children := make([]*Namespace[T], 0, len(n.children))
	for _, name := range slices.Sorted(maps.Keys(n.children)) {
		children = append(children, n.children[name])
	}
	n.mu.Unlock()

	for _, c := range children {
		c.Walk(visit)
	}
}
