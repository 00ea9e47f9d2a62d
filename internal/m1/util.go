package m1

import (
	"encoding/json"
	"time"
)

// noTime is the zero time, used where a handler has no Last-Modified value
// to report (collection listings).
var noTime time.Time

// remarshalInto decodes a generic map[string]interface{} (already parsed
// once off the wire) into a typed struct via a JSON round-trip. The AF
// treats OpenAPI codec generation as out of scope (spec.md §1), so this
// project's request DTOs are plain structs populated this way rather than
// through a schema-driven decoder.
func remarshalInto(raw map[string]interface{}, dst interface{}) {
	b, _ := json.Marshal(raw)
	_ = json.Unmarshal(b, dst)
}

// marshalCanonical renders v with sorted map keys (Go's encoding/json
// already sorts map[string]interface{} keys and struct fields in
// declaration order, which is sufficiently canonical for ETag hashing here).
func marshalCanonical(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
