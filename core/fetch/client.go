// Package fetch implements the Fetcher interface against the Jira REST API.
// Requests go through go-jira for authentication and request building, and
// through a retrying HTTP client for transient failures.
package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/gaurav-prasanna/jirapipe/internal/config"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 3
	userAgent       = "jirapipe/1.0 (https://github.com/gaurav-prasanna/jirapipe)"
)

var (
	// ErrUnauthorized is returned for HTTP 401 and 403 responses.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("not found")
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIVersion int // 2 or 3; 0 means 3
	Username   string
	Token      string
	// Bearer sends Token as a personal access token instead of basic auth.
	Bearer   bool
	RetryMax int
	Timeout  time.Duration
	TLS      *tls.Config
	// SprintField is the custom field id holding the sprint, if any.
	SprintField string
}

// OptionsFromConfig builds client options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	tlsConfig, err := TLSConfig(cfg.SSL)
	if err != nil {
		return Options{}, err
	}
	return Options{
		BaseURL:     cfg.APIBaseURL,
		APIVersion:  cfg.APIVersion,
		Username:    cfg.APIUsername,
		Token:       cfg.APIToken,
		Bearer:      cfg.BearerAuth,
		RetryMax:    cfg.HTTPRetryMax,
		Timeout:     cfg.HTTPTimeout(),
		TLS:         tlsConfig,
		SprintField: cfg.SprintFieldID,
	}, nil
}

// TLSConfig translates the ssl settings. It returns nil when the defaults
// apply.
func TLSConfig(ssl config.SSLConfig) (*tls.Config, error) {
	if ssl.Verify && ssl.CABundle == "" && ssl.CertificateFile == "" {
		return nil, nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !ssl.Verify,
	}
	if ssl.CABundle != "" {
		pem, err := os.ReadFile(ssl.CABundle)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", ssl.CABundle)
		}
		cfg.RootCAs = pool
	}
	if ssl.CertificateFile != "" {
		cert, err := tls.LoadX509KeyPair(ssl.CertificateFile, ssl.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Client talks to one Jira instance.
type Client struct {
	jira        *jira.Client
	version     int
	sprintField string
}

// New creates a Client. It does not contact the server.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	version := opts.APIVersion
	if version == 0 {
		version = 3
	}
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("unsupported API version %d", version)
	}

	var base http.RoundTripper = http.DefaultTransport
	if opts.TLS != nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = opts.TLS
		base = t
	}
	base = userAgentTransport{next: base}

	var auth http.RoundTripper
	if opts.Bearer {
		auth = &jira.PATAuthTransport{Token: opts.Token, Transport: base}
	} else {
		auth = &jira.BasicAuthTransport{Username: opts.Username, Password: opts.Token, Transport: base}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryMax := opts.RetryMax
	if retryMax < 0 {
		retryMax = defaultRetryMax
	}

	cl := retryablehttp.NewClient()
	cl.RetryMax = retryMax
	cl.HTTPClient.Transport = auth
	cl.HTTPClient.Timeout = timeout
	cl.Logger = slog.Default()
	cl.ErrorHandler = lastResponse

	client, err := jira.NewClient(cl.StandardClient(), opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating jira client: %w", err)
	}
	return &Client{jira: client, version: version, sprintField: opts.SprintField}, nil
}

// lastResponse surfaces the final response once retries run out, so its
// status reaches statusError instead of a generic "giving up" error.
func lastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// APIVersion reports whether the client speaks rest/api/2 or rest/api/3.
func (c *Client) APIVersion() int { return c.version }

func (c *Client) api(format string, args ...any) string {
	return fmt.Sprintf("rest/api/%d/", c.version) + fmt.Sprintf(format, args...)
}

// do sends the request and decodes a JSON body into v when v is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	req, err := c.jira.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("jira request", "method", method, "path", path)
	resp, err := c.jira.Do(req, v)
	if err == nil {
		if v == nil {
			drain(resp)
		}
		return nil
	}
	return statusError(method, path, resp, err)
}

func drain(resp *jira.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// statusError maps a failed exchange to the package's sentinel errors.
func statusError(method, path string, resp *jira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	detail := jira.NewJiraError(resp, err)
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnauthorized, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrNotFound, detail)
	}
	return fmt.Errorf("%s %s: status %d: %w", method, path, code, detail)
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.next.RoundTrip(req)
}
