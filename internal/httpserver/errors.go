package httpserver

import "errors"

// errWrongOwner guards against SendResponse being called on the wrong
// Backend for a given StreamHandle — a programming error, not a peer fault.
var errWrongOwner = errors.New("httpserver: stream does not belong to this backend")
