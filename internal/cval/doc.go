// Package cval provides the constrained component-value model shared by
// the scope resolution engine and its gateways.
//
// This package contains value types and their serialization only. Every
// other internal package imports cval; cval imports nothing internal,
// keeping it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - use Int (int64) for numbers
//   - Strict equality: no implicit coercion between kinds (Equal)
//   - Canonical JSON (RFC 8785) is the only input to content hashing
//   - JSON null round-trips as the concrete Null type, never a nil interface
package cval
