// Package logging provides the structured logger used across the 5GMS
// Application Function: a thin wrapper over log/slog that tags every entry
// with a subsystem name and logs security-relevant operations (certificate
// issuance, provisioning-session lifecycle, PCF policy changes) as audit
// events: INFO-level entries on the same logger, tagged with the "AUDIT"
// subsystem and an "[AUDIT]" message prefix.
//
// The package owns only the logging API, not the logging backend: where log
// lines are ultimately shipped (file, syslog, collector) is a deployment
// concern outside this package's scope.
package logging
