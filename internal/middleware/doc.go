// Package middleware provides the HTTP middleware the server stacks in
// front of the router:
//   - access logging in W3C Extended Log Format through the logging package
//   - Prometheus request metrics labelled by route template
//   - gzip compression of JSON responses
package middleware
