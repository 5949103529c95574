// Package core provides the module system foundation for loglink.
package core

import "strings"

// ModuleID uniquely identifies a module. IDs are namespaced with dots,
// e.g. "channel.telegram" or "store.sqlite".
type ModuleID string

// Namespace returns the part of the ID before the last dot.
func (id ModuleID) Namespace() string {
	s := string(id)
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return ""
	}
	return s[:i]
}

// Name returns the part of the ID after the last dot.
func (id ModuleID) Name() string {
	s := string(id)
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return s
	}
	return s[i+1:]
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique, namespaced module identifier.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the minimal interface all modules implement. Lifecycle
// behaviour is added through the optional interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
