// Package config loads and validates Lumen Bridge configuration.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by LUMEN_* environment variables. The load order is:
//
//  1. Default values (hardcoded)
//  2. YAML file values
//  3. Environment variables (LUMEN_MQTT_HOST, LUMEN_MQTT_PASSWORD, ...)
//
// Validation happens once at load time. In particular the device ID is
// checked here for topic safety (no '/', '+', or '#') so that downstream
// topic construction never has to re-validate it.
package config
