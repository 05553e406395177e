// Package config handles loading and validating blockenergy core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (BLOCKENERGY_SECTION_KEY)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - MQTT passwords, InfluxDB tokens and the JWT secret belong in environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Energy.Namespace)
package config
