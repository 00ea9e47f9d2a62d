package config

import "time"

// DefaultConfig returns the minimal configuration the AF needs to start: a
// single HTTP/2 endpoint and no Application Servers. Real deployments
// override this from the YAML document.
func DefaultConfig() Config {
	return Config{
		ServerName: "5gmsdaf",
		APIRelease: "v2",
		Endpoints: []EndpointConfig{
			{Name: "m1", Address: "0.0.0.0", Port: 7777, Protocol: ProtocolHTTP2},
		},
		CertificateDir:        "/var/lib/5gmsaf/certificates",
		DataCollectionDir:     "/var/lib/5gmsaf/reports",
		SAICacheControlMaxAge: 30,
		NetworkAssistance: NetworkAssistanceConfig{
			DeliveryBoostSeconds: 20,
		},
		RequestTimeout: 30 * time.Second,
	}
}

// ApplyDefaults fills in zero-valued fields of cfg from DefaultConfig,
// leaving any field the document explicitly set untouched.
func ApplyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.ServerName == "" {
		cfg.ServerName = def.ServerName
	}
	if cfg.APIRelease == "" {
		cfg.APIRelease = def.APIRelease
	}
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = def.Endpoints
	}
	if cfg.CertificateDir == "" {
		cfg.CertificateDir = def.CertificateDir
	}
	if cfg.DataCollectionDir == "" {
		cfg.DataCollectionDir = def.DataCollectionDir
	}
	if cfg.SAICacheControlMaxAge == 0 {
		cfg.SAICacheControlMaxAge = def.SAICacheControlMaxAge
	}
	if cfg.NetworkAssistance.DeliveryBoostSeconds == 0 {
		cfg.NetworkAssistance.DeliveryBoostSeconds = def.NetworkAssistance.DeliveryBoostSeconds
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	for i := range cfg.Endpoints {
		if cfg.Endpoints[i].Protocol == "" {
			cfg.Endpoints[i].Protocol = ProtocolHTTP1
		}
	}
}
