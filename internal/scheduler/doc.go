// Package scheduler implements the GPU-resource-aware transcription job
// scheduler: admission control over device memory, a FIFO job queue with a
// bounded worker pool, a shared model cache, and the ordered shutdown
// protocol that reclaims device memory on exit. It is structured into small
// files by concern:
//
//   - scheduler.go: core Scheduler type, constructor, Start.
//   - config.go: Config, package defaults, footprint table.
//   - types.go: the Job record and its external view.
//   - errors.go: error taxonomy and predicate helpers.
//   - admission.go: the admission check and model recommendations.
//   - cache.go: the (model, device) session cache with at-most-one-load.
//   - submit.go: Submit, Cancel, and status queries.
//   - dispatch.go: worker loop driving jobs queued -> processing -> terminal.
//   - shutdown.go: signal-driven drain and memory release.
//   - watchdog.go: low-memory warning sampler.
//   - events.go, eventpub_memory.go, eventpub_stream.go: event sink.
//   - metrics.go: prometheus domain metrics.
//   - status_report.go: /status, /models, /devices projections.
//   - output.go: transcript file naming and writing.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (e.g. New, Start, Submit, Cancel, Job, Jobs,
// Status, Shutdown). Internal types are subject to change.
package scheduler
