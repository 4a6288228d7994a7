// Package relay publishes and looks up signed peer records.
//
// Service holds the rules: an identity is parsed and canonicalized before the
// store is touched, and a record is written only once its layout, its
// embedded identity and its signature have all been checked. Handler maps
// Service onto HTTP:
//
//	GET    /{id}        raw record bytes
//	PUT    /{id}        publish a record
//	POST   /batch       look up several identities at once
//	DELETE /admin/{id}  evict a record (basic auth)
//
// All client errors are reported as 404 with a short message body; store
// failures are reported as 500.
package relay
