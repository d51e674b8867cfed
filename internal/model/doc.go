// Package model holds the semantic model of protocol schema documents: the
// twelve field kinds, aliases, conditions, messages, interfaces, frames and
// layers, and the namespace/schema/protocol symbol tables that resolve
// references between them.
//
// A Builder ingests element trees and validates them in one pass. Every
// mutating method is unexported; the *Protocol returned by Builder.Build is
// read-only and may be shared between goroutines.
package model
