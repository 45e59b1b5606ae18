// Package types provides type definitions for structured data used throughout the CV assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Locale selects the language-specific rules applied to user content
type Locale string

// Supported locales
const (
	LocaleEN Locale = "en"
	LocaleTR Locale = "tr"
)

// Valid reports whether the locale is one of the supported values
func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleTR
}
