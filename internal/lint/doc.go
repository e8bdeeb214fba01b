// Package lint runs an external syntax checker on many files at once.
//
// Overview
// Scheduler owns a queue of pending Jobs and a set of running Processes. It
// launches processes up to the configured parallelism, waits until at least
// one of them exits, collects the finished ones and refills the pool. Results
// are streamed to a Sink as processes finish and aggregated into a
// model.Report.
//
// Process is a thin wrapper around os/exec:
//   - starts the checker with a typed argument vector, no shell involved
//   - captures stdout and stderr into one buffer
//   - waits on the process in its own goroutine
//   - exposes a non-blocking Ready and a Result classified by a Matcher
//
// Data flow:
//
//	Scheduler.Run            Process{job}               checker
//	     |                        |                        |
//	preflight ------------------------------------------> -v
//	     | fill: Start() -------->| os/exec.Start -------->|
//	     |                        | Wait() in goroutine    |
//	     | suspend (notify|poll)  |<------- exit ----------|
//	     | collect: Ready() ----->|                        |
//	     |<-- Result(matcher) ----|                        |
//	Sink.Result / Report.Add      |                        |
//
// Invariants:
//   - Each file is started exactly once, duplicates are dropped from the queue.
//   - At most parallelism processes run at the same time.
//   - The running set is touched only by the goroutine calling Run.
//   - Started processes are never killed, there is no timeout.
//   - With parallelism 1, or a single job in total, processes run
//     synchronously and the loop never suspends.
//
// The notify wait strategy relies on the exit notification sent by the
// process goroutines; the poll strategy sleeps for a fixed interval and is
// kept for setups where the notification is not wanted.
package lint
