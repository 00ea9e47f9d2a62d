package httpserver

import "fmt"

// APIInfo names the OpenAPI document a resource family is served from, used
// to build the Server header spec.md §4.1 requires on every response.
type APIInfo struct {
	Title   string
	Version string
}

// ServerHeader renders "Server: 5GMSdAF-<host>/<apiRelease> (info.title=…;
// info.version=…) <name>/<version>" exactly as spec.md §4.1 specifies.
func ServerHeader(host, apiRelease, name, version string, info APIInfo) string {
	return fmt.Sprintf("5GMSdAF-%s/%s (info.title=%s; info.version=%s) %s/%s",
		host, apiRelease, info.Title, info.Version, name, version)
}
