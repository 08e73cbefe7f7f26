// Package harness provides conformance testing for the hostbridge boundary.
//
// A scenario drives the exported operations and records what the host
// observes: printed output, the failure message and the number of
// completions delivered.
//
// # Scenario Format
//
// Scenarios are YAML files. Each has exactly one of script or operations:
//
//	name: schedule_task
//	description: "scheduleTask completes once with (null, 17)"
//	script: |
//	  const hb = require("hostbridge");
//	  hb.scheduleTask((err, v) => console.log(String(err) + " " + v));
//	expect:
//	  stdout: "null 17\n"
//	  callbacks: 1
//
//	name: print_batch
//	description: "operations run in index order"
//	operations:
//	  - {operator: print, value: a}
//	  - {operator: print, value: b}
//	expect:
//	  stdout: "a\nb\n"
//
// Unknown fields are rejected. An omitted expect.error means the run must
// succeed.
//
// # Golden Files
//
// RunWithGolden snapshots the run as canonical JSON and compares it with
// testdata/golden/<name>.golden. Regenerate with -update.
package harness
