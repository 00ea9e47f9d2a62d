// Package httpserver implements the dual HTTP/1.1 and HTTP/2 server
// abstraction from spec.md §4.1 (C1): two interchangeable Backend
// implementations expose the same lifecycle (Init/Finalize/Start/Stop) and
// response path (SendResponse), and every inbound request is handed to the
// caller as a StreamHandle whose one exported field identifies the owning
// Backend, so serverFromStream is a field read rather than a dispatch-table
// call — see spec.md §9.
package httpserver
