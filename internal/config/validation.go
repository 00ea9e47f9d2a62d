package config

import "fmt"

// Validate checks that cfg is internally consistent. It must be called
// after ApplyDefaults.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.ServerName == "" {
		errs = append(errs, ValidationError{"serverName", "must not be empty"})
	}
	if len(cfg.Endpoints) == 0 {
		errs = append(errs, ValidationError{"endpoints", "at least one bind endpoint is required"})
	}

	seen := make(map[string]bool, len(cfg.Endpoints))
	for i, ep := range cfg.Endpoints {
		field := fmt.Sprintf("endpoints[%d]", i)
		if ep.Name == "" {
			errs = append(errs, ValidationError{field + ".name", "must not be empty"})
		} else if seen[ep.Name] {
			errs = append(errs, ValidationError{field + ".name", "duplicate endpoint name"})
		}
		seen[ep.Name] = true

		if ep.Port <= 0 || ep.Port > 65535 {
			errs = append(errs, ValidationError{field + ".port", "must be between 1 and 65535"})
		}
		if ep.Protocol != ProtocolHTTP1 && ep.Protocol != ProtocolHTTP2 {
			errs = append(errs, ValidationError{field + ".protocol", "must be \"http1\" or \"http2\""})
		}
	}

	for i, as := range cfg.ApplicationServers {
		field := fmt.Sprintf("applicationServers[%d]", i)
		if as.CanonicalHostname == "" {
			errs = append(errs, ValidationError{field + ".canonicalHostname", "must not be empty"})
		}
		if as.M3Port <= 0 || as.M3Port > 65535 {
			errs = append(errs, ValidationError{field + ".m3Port", "must be between 1 and 65535"})
		}
	}

	if cfg.SAICacheControlMaxAge < 0 {
		errs = append(errs, ValidationError{"saiCacheControlMaxAge", "must not be negative"})
	}
	if cfg.NetworkAssistance.DeliveryBoostSeconds <= 0 {
		errs = append(errs, ValidationError{"networkAssistance.deliveryBoostSeconds", "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
