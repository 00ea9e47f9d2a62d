// Package problem builds RFC 7807 application/problem+json error bodies for
// the M1, M3 and M5 surfaces. It treats JSON encoding as an opaque
// serialization step (encoding/json); no OpenAPI schema or codec generation
// is involved, per the AF's scope.
package problem
