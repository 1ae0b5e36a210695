// Package metrics holds the Prometheus collectors shared by the catalog client,
// the annotation store and the HTTP API. Collectors are registered on the default
// registry at init and exposed by the server's /metrics route.
package metrics
