// Package httpapi exposes the change queue over a small local HTTP API:
// queue listing, sync status, sync triggers and prometheus metrics.
package httpapi
