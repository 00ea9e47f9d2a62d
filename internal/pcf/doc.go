// Package pcf implements the PCF/BSF subsystem from spec.md §4.8 (C8): BSF
// discovery caching, PCF Session establishment via Npcf_PolicyAuthorization,
// and the network-assistance delivery-boost lifecycle. Every call that
// reaches the network suspends off the event-loop goroutine via
// eventloop.Loop.Go and resumes through its continuation, the same
// suspend/resume idiom internal/m1 uses for certmgr invocations.
package pcf
