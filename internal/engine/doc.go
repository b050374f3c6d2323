// Package engine implements the condition registry and evaluation engine.
//
// ARCHITECTURE:
//
// A Watcher ties together:
//   - Registry: name -> definition (type, options, callback)
//   - Counters: in-memory view of persisted state, loaded lazily
//   - Evaluator: type-specific verification
//
// Control flow: register once, activate zero or more times as events
// happen, evaluate at a checkpoint.
//
// Single Actor:
// No goroutines, no locks. Every operation completes or fails synchronously;
// the only blocking call is the durable write behind Counters.Persist.
//
// CRITICAL PATTERNS:
//
// Write-or-rollback:
// Every state change is persisted before the call reports success. When the
// write fails the in-memory change is rolled back and a PERSISTENCE_FAILED
// Error is returned.
//
// Activation vs evaluation:
// Only activation increments counters, and only while the condition is not
// limited. Evaluation of a count condition never writes. Evaluation of a
// version-change condition writes its baseline on first sight and on every
// detected change.
//
// Modulo at zero:
// A CountModulo condition is verified before its first activation: 0 is a
// multiple of every modulus.
package engine
