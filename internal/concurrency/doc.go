// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency hosts the single-threaded event loop each component
// runs. A loop serves posted tasks and readiness callbacks from one reactor
// poll, optionally on a dedicated OS thread pinned to a CPU.
package concurrency
