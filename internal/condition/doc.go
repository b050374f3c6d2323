// Package condition defines the condition model shared by the engine, the
// durable store and the definition loaders.
//
// A condition is a named, typed rule. Count-based conditions carry an
// activation counter and an optional activation limit; version-change
// conditions carry the last observed application version (the baseline).
//
// Names are keys: they are normalized to Unicode NFC before use so that two
// visually identical names always address the same persisted state.
package condition
