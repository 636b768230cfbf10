// Package observability builds the zap logger and the Prometheus collectors
// shared by the API server and the permctl tool.
package observability
