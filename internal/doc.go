// Package internal holds helpers shared by goAuthClient and its internal
// sub-packages: one-time code generation for the mock service and the code
// digest used to refuse replayed OAuth callbacks.
//
// Sub-packages: audit (event dispatch), flows (operation orchestration),
// metrics (counters and histograms), mockservice (in-process remote service).
package internal
