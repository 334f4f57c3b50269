// Package middleware provides the Gin middleware stack: request IDs,
// panic recovery, request logging, and body-size limiting.
package middleware
