package router

import (
	"net/http"
	"strings"
)

// RequestContext is the parsed shape of an inbound request, per spec.md
// §4.2: method, the 3GPP service name and API version taken from the URI
// prefix, and the resource path split into components.
//
// A URI like /3gpp-m1/v2/provisioning-sessions/abc123/certificates/cert1
// parses to ServiceName="3gpp-m1", APIVersion="v2", Components=
// ["provisioning-sessions", "abc123", "certificates", "cert1"].
type RequestContext struct {
	Method     string
	ServiceName string
	APIVersion  string
	Components  []string
	Query       map[string][]string
}

// Instance renders the matched resource path the way spec.md §6 wants it
// in a problem-details "instance" field.
func (rc RequestContext) Instance() string {
	return "/" + strings.Join(rc.Components, "/")
}

// Component returns Components[i], or "" if the path is shorter than i+1
// segments.
func (rc RequestContext) Component(i int) string {
	if i < 0 || i >= len(rc.Components) {
		return ""
	}
	return rc.Components[i]
}

// Parse splits an inbound *http.Request's path into a RequestContext. The
// leading path element names the 3GPP service ("3gpp-m1", "3gpp-m3",
// "3gpp-m5", "5gmag-rt-management"); the second names the API version, e.g.
// the management API's literal path "/5gmag-rt-management/v1/
// provisioning-sessions" per spec.md §6.
func Parse(r *http.Request) RequestContext {
	segments := splitPath(r.URL.Path)

	rc := RequestContext{Method: r.Method, Query: map[string][]string(r.URL.Query())}
	if len(segments) == 0 {
		return rc
	}
	rc.ServiceName = segments[0]

	rest := segments[1:]
	if len(rest) > 0 {
		rc.APIVersion = rest[0]
		rest = rest[1:]
	}
	rc.Components = rest
	return rc
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Service names recognised on the wire, per spec.md §6.
const (
	ServiceM1         = "3gpp-m1"
	ServiceM3         = "3gpp-m3"
	ServiceM5         = "3gpp-m5"
	ManagementService = "5gmag-rt-management"
)
