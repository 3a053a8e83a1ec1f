// Package config handles loading and validating hond configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Cloud tokens and broker passwords should be set via environment variables
//     (HOND_HON_ID_TOKEN, HOND_HON_COGNITO_TOKEN, HOND_MQTT_PASSWORD)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/hond.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range cfg.Appliances {
//	    fmt.Println(a.MacAddress, a.Type)
//	}
package config
