package m1

import (
	_ "embed"
)

// contentProtocolsJSON is the Content Protocols Discovery document from
// spec.md §3: a static JSON blob embedded at build time. Its ETag and
// Last-Modified are fixed for the life of the binary — see NewFSM.
//
//go:embed content_protocols.json
var contentProtocolsJSON []byte
