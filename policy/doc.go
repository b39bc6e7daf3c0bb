// Package policy restricts which tools a composed proof execution may invoke.
// A policy travels with the context; a context without one allows every tool.
package policy
