// Package config loads jirapipe settings.
//
// Settings come from a YAML file located by, in order: the --config flag,
// the JIRA_TUI_CONFIG_FILE environment variable, or
// <user config dir>/jiratui/config.yaml. A handful of JIRA_* environment
// variables override file values afterwards, so credentials can stay out of
// the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingSetting is returned by Validate for required settings that are empty.
var ErrMissingSetting = errors.New("missing required setting")

// EnvConfigFile names the environment variable holding the config file path.
const EnvConfigFile = "JIRA_TUI_CONFIG_FILE"

// Config is the complete jirapipe configuration.
type Config struct {
	// APIUsername is the account email used for basic authentication.
	APIUsername string `yaml:"jira_api_username"`
	// APIToken is the API token, or the personal access token when
	// BearerAuth is set.
	APIToken string `yaml:"jira_api_token"`
	// APIBaseURL is the root of the REST API, e.g. https://example.atlassian.net.
	APIBaseURL string `yaml:"jira_api_base_url"`
	// APIVersion selects rest/api/2 or rest/api/3. Default: 3
	APIVersion int `yaml:"jira_api_version"`
	// Cloud is true for Jira Cloud, false for Server/Data Center. Default: true
	Cloud bool `yaml:"cloud"`
	// BearerAuth sends the token as a bearer token instead of basic auth.
	BearerAuth bool `yaml:"use_bearer_authentication"`

	// BaseURL is the web address used to build links for people and work
	// items. Falls back to APIBaseURL.
	BaseURL string `yaml:"jira_base_url"`

	// SearchResultsPerPage bounds search and comment pages. Default: 30
	SearchResultsPerPage int `yaml:"search_results_per_page"`
	// SprintFieldID is the custom field holding the sprint, e.g. customfield_10020.
	SprintFieldID string `yaml:"custom_field_id_sprint"`
	// ShowWebLinks includes remote links in rendered documents. Default: true
	ShowWebLinks bool `yaml:"show_issue_web_links"`

	// LogFile receives JSON log records when set; otherwise logs go to stderr.
	LogFile string `yaml:"log_file"`
	// LogLevel is one of DEBUG, INFO, WARNING, ERROR, CRITICAL. Default: WARNING
	LogLevel string `yaml:"log_level"`

	// HTTPRetryMax is the number of retries for failed requests. Default: 3
	HTTPRetryMax int `yaml:"http_retry_max"`
	// HTTPTimeoutSeconds bounds each HTTP request. Default: 30
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`

	SSL SSLConfig `yaml:"ssl"`
}

// SSLConfig configures TLS for the API connection.
type SSLConfig struct {
	// Verify checks the server certificate. Default: true
	Verify bool `yaml:"verify_ssl"`
	// CABundle is a PEM file of additional trusted roots.
	CABundle string `yaml:"ca_bundle"`
	// CertificateFile and KeyFile hold a client certificate.
	CertificateFile string `yaml:"certificate_file"`
	KeyFile         string `yaml:"key_file"`
}

// Default returns the configuration used before any file is read.
func Default() *Config {
	return &Config{
		APIVersion:           3,
		Cloud:                true,
		SearchResultsPerPage: 30,
		ShowWebLinks:         true,
		LogLevel:             "WARNING",
		HTTPRetryMax:         3,
		HTTPTimeoutSeconds:   30,
		SSL:                  SSLConfig{Verify: true},
	}
}

// DefaultPath returns <user config dir>/jiratui/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jiratui", "config.yaml")
}

// Load reads the configuration. An explicit path, from the argument or from
// JIRA_TUI_CONFIG_FILE, must exist; the default path may be absent, in
// which case only defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}

	cfg := Default()
	if path != "" {
		err := cfg.loadFile(path)
		switch {
		case err == nil:
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with JIRA_* environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"JIRA_API_USERNAME":  &c.APIUsername,
		"JIRA_API_TOKEN":     &c.APIToken,
		"JIRA_API_BASE_URL":  &c.APIBaseURL,
		"JIRA_BASE_URL":      &c.BaseURL,
		"JIRA_TUI_LOG_LEVEL": &c.LogLevel,
		"JIRA_TUI_LOG_FILE":  &c.LogFile,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	if v := getenv("JIRA_API_VERSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JIRA_API_VERSION: %w", err)
		}
		c.APIVersion = n
	}
	return nil
}

// Validate checks the settings needed to talk to the API.
func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: jira_api_base_url", ErrMissingSetting))
	}
	if c.APIToken == "" {
		errs = append(errs, fmt.Errorf("%w: jira_api_token", ErrMissingSetting))
	}
	if c.APIUsername == "" && !c.BearerAuth {
		errs = append(errs, fmt.Errorf("%w: jira_api_username", ErrMissingSetting))
	}
	if c.APIVersion != 2 && c.APIVersion != 3 {
		errs = append(errs, fmt.Errorf("jira_api_version must be 2 or 3, got %d", c.APIVersion))
	}
	if (c.SSL.CertificateFile == "") != (c.SSL.KeyFile == "") {
		errs = append(errs, errors.New("ssl.certificate_file and ssl.key_file must be set together"))
	}
	return errors.Join(errs...)
}

// WebBaseURL is the address used for people and work item links.
func (c *Config) WebBaseURL() string {
	base := c.BaseURL
	if base == "" {
		base = c.APIBaseURL
	}
	return strings.TrimRight(base, "/")
}

// HTTPTimeout returns the per-request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
