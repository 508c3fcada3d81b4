// Package textutil provides small text helpers shared across the tool,
// primarily sanitizing source identifiers and derived output names for
// safe filesystem use.
package textutil
