// Package session stores suspended imports between the missing entity
// report and the request that resolves them.
package session
