// Package certmgr is the glue between the Provisioning Store (internal/store)
// and the external certificate-manager helper: it names AF-unique
// certificate identifiers, invokes the certmgr binary as a bounded
// subprocess, and persists the PEM bytes it returns to disk. The certmgr
// binary itself — what it does to actually mint a certificate — is an
// external collaborator outside this package's scope; this package only
// implements the narrow contract of spec.md §6.
package certmgr
