// Package executor defines the boundary between the orchestration engine and
// the verifiers that actually produce proofs. A ToolExecutor receives a tool
// name with its merged parameters and reports whether the verification
// succeeded. Decorators add routing, rate limiting and policy enforcement.
package executor
