// Package api exposes the design engine over HTTP and provides a client
// for it.
//
// # Server
//
// [Server] is a chi router serving:
//
//	GET  /healthz              liveness
//	GET  /presets              the size preset table
//	GET  /products             the product catalog
//	GET  /products/{slug}      one product
//	POST /designs              save a design payload, returns {"id": ...}
//	GET  /designs/{id}         a saved design
//	POST /cart/items           add a cart item
//	GET  /cart/items?cart=ID   the items of a cart
//	POST /quote                price a layer set off-screen
//
// Errors are JSON objects {"error": message, "code": code}; the code is one
// of the codes of package errors and determines the status.
//
// # Client
//
// [Client] implements store.Designs, store.Cart and catalog.Source over
// HTTP, so an Editor can save to a remote server. Network failures and 5xx
// responses are retried with backoff; error codes survive the round trip.
package api
