// Package urls centralizes the feeder appliance's HTTP paths and the way
// request URLs are assembled from a host and port.
//
// The appliance firmware serves everything from the root of a plain HTTP
// server, so a URL is always "http://{host}:{port}{path}". Host and port are
// inserted verbatim; sanitizing user input is the settings store's job.
//
// Usage:
//
//	import "github.com/gingus/katfod/internal/urls"
//
//	target := urls.Endpoint("192.168.100.100", "80", urls.DispensePath)
package urls
