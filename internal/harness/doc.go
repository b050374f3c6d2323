// Package harness runs condition scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: rate_prompt
//	description: "Prompt for a rating on the third launch, once"
//	version: "1.0"
//	conditions:
//	  rate-app:
//	    type: count_launch
//	    options: { count_exact: 3, limiting_activation_count: 3 }
//	steps:
//	  - action: launch
//	    expect: true
//	  - action: evaluate
//	    name: rate-app
//	    expect: false
//	  - action: restart
//	  - action: limit
//	    name: rate-app
//	    count: 1
//	  - action: trigger
//	    name: rate-app
//	    expect_error: TYPE_MISMATCH
//
// # Step Kinds
//
//   - evaluate, trigger, limit, unlimit, remove, journal: act on one named condition
//   - launch, reactivate, open: activate every condition of the matching type
//   - set_version: change the version reported by the environment
//   - restart: close the store and open a new session over the same files;
//     the state must survive unchanged
//
// # Deterministic Testing
//
// Every scenario runs in a fresh temporary directory with a fake clock
// fixed at testutil.Epoch, sequential journal ids and one session id per
// run ("run-1", "run-2" after a restart). Traces are therefore identical
// across runs and are compared with golden files through goldie.
package harness
