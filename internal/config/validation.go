package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateAppSecConfig(&cfg.AppSec); err != nil {
		return fmt.Errorf("YAML global config: appsec directive is invalid: %w", err)
	}
	if err := ValidateUIConfig(&cfg.UI); err != nil {
		return fmt.Errorf("YAML global config: ui directive is invalid: %w", err)
	}
	return nil
}

// ValidateAppSecConfig checks the portal settings. Missing URL or token is not
// a validation error; it surfaces as a configuration error on the first API call.
func ValidateAppSecConfig(appsec *AppSec) error {
	if appsec == nil {
		return fmt.Errorf("appsec configuration is nil")
	}
	if appsec.APIURL == "" {
		return nil
	}
	u, err := url.Parse(appsec.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must start with http:// or https://: %q", appsec.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url has no host: %q", appsec.APIURL)
	}
	return nil
}

// ValidateUIConfig checks the rendering preferences.
func ValidateUIConfig(ui *UI) error {
	if ui == nil {
		return fmt.Errorf("ui configuration is nil")
	}
	switch strings.ToLower(ui.Theme) {
	case "", ThemeAuto, ThemeDark, ThemeLight:
		return nil
	default:
		return fmt.Errorf("theme must be one of %q, %q, %q: got %q", ThemeAuto, ThemeDark, ThemeLight, ui.Theme)
	}
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	return validatePort(proxy.Port)
}

// validateHost ensures the proxy host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
