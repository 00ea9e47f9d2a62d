// Package config loads and validates the AF's single YAML configuration
// document: server identity, M1/M3/M5 bind endpoints, Application Server
// records, the certificate-manager executable path, reporting directories,
// SAI cache control, network-assistance tuning, and the 5G Core peer
// endpoints (BSF, PCF, NRF).
//
// Bootstrapping and file-discovery layering (user config vs project config,
// env var overrides, flag merging) are deliberately out of scope: this
// package only parses one document and validates it.
package config
