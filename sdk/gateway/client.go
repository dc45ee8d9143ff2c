// Package gateway is the client-side gateway to the Hailuo service. A single
// Client mediates every request the application sends: it resolves the
// service endpoint once at construction, attaches the credential matching
// each request's namespace, reacts to authentication failures by
// invalidating the right credential and steering navigation to the right
// login surface, and exposes one typed operation per backend capability.
package gateway

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"

	"github.com/xinsaaa/hailuo/sdk/credential"
	"github.com/xinsaaa/hailuo/sdk/nav"
)

const (
	// apiBasePath is the root path the service namespaces its API under.
	apiBasePath = "/api"
	// servicePort is the fixed port used when deriving the endpoint from a
	// deployment origin.
	servicePort = 8000
	// localEndpoint is the hardcoded fallback for local development.
	localEndpoint = "http://localhost:8000/api"
	// requestTimeout is the fixed client-side timeout applied to every
	// request. A timeout surfaces as a transport failure and is not retried.
	requestTimeout = 10 * time.Second
)

// Options configures a Client. Credentials and Navigator are injected so the
// gateway shares credential state with the route guard and session store
// instead of relying on ambient globals.
type Options struct {
	// Endpoint is an explicit API endpoint. When set it wins over derivation.
	Endpoint string
	// Origin is the deployment origin (scheme://host[:port]) the client runs
	// against, the stand-in for the browser's current location. Ignored when
	// Endpoint is set; a loopback or empty origin falls back to the local
	// endpoint.
	Origin string
	// ProxyURL optionally routes requests through a SOCKS5/HTTP/HTTPS proxy.
	ProxyURL string
	// Credentials is the shared credential store. Required.
	Credentials credential.Store
	// Navigator is the navigation surface failure handling steers. Required.
	Navigator nav.Navigator
	// DeviceFingerprint identifies this install to the risk endpoint. A
	// fresh one is generated when empty.
	DeviceFingerprint string
}

// Client is the request dispatcher. All typed operations funnel through a
// single do path so the interceptor pipeline runs on every request.
type Client struct {
	baseURL     string
	basePath    string
	http        *http.Client
	creds       credential.Store
	nav         nav.Navigator
	fingerprint string
	reqHooks    []RequestHook
	respHooks   []ResponseHook
}

// New builds a Client. The auth and failure hooks are always installed; they
// are not optional per-call behavior.
func New(opts Options) (*Client, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("gateway: credential store is required")
	}
	if opts.Navigator == nil {
		return nil, fmt.Errorf("gateway: navigator is required")
	}
	endpoint := ResolveEndpoint(opts.Endpoint, opts.Origin)
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse endpoint %q failed: %w", endpoint, err)
	}
	fingerprint := opts.DeviceFingerprint
	if fingerprint == "" {
		fingerprint = uuid.NewString()
	}
	c := &Client{
		baseURL:     strings.TrimRight(endpoint, "/"),
		basePath:    strings.TrimRight(base.Path, "/"),
		http:        &http.Client{Timeout: requestTimeout},
		creds:       opts.Credentials,
		nav:         opts.Navigator,
		fingerprint: fingerprint,
	}
	if opts.ProxyURL != "" {
		setProxy(opts.ProxyURL, c.http)
	}
	c.reqHooks = []RequestHook{&authInjector{creds: c.creds, basePath: c.basePath}}
	c.respHooks = []ResponseHook{&failureHandler{creds: c.creds, nav: c.nav, basePath: c.basePath}}
	log.Debugf("gateway: endpoint resolved to %s", c.baseURL)
	return c, nil
}

// ResolveEndpoint applies the endpoint resolution policy: an explicit
// endpoint wins; otherwise a non-loopback origin derives
// scheme://host:<service port>/api; otherwise the local fallback is used.
// One build serves both local development and remote deployment.
func ResolveEndpoint(explicit, origin string) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	if origin != "" {
		if u, err := url.Parse(origin); err == nil && u.Hostname() != "" && !isLoopback(u.Hostname()) {
			scheme := u.Scheme
			if scheme == "" {
				scheme = "http"
			}
			return fmt.Sprintf("%s://%s:%d%s", scheme, u.Hostname(), servicePort, apiBasePath)
		}
	}
	return localEndpoint
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// setProxy wires the transport through the configured proxy. SOCKS5 carries
// optional credentials; HTTP/HTTPS proxies use the standard transport hook.
func setProxy(proxyURL string, httpClient *http.Client) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		log.Errorf("gateway: parse proxy url failed: %v", err)
		return
	}
	var transport *http.Transport
	switch parsed.Scheme {
	case "socks5":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{User: parsed.User.Username(), Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("gateway: create SOCKS5 dialer failed: %v", errSOCKS5)
			return
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	}
	if transport != nil {
		httpClient.Transport = transport
	}
}

// Use appends a request hook after the built-in auth hook.
func (c *Client) Use(hook RequestHook) { c.reqHooks = append(c.reqHooks, hook) }

// UseResponse appends a response hook after the built-in failure hook.
func (c *Client) UseResponse(hook ResponseHook) { c.respHooks = append(c.respHooks, hook) }

// DeviceFingerprint returns the fingerprint sent to the risk endpoint.
func (c *Client) DeviceFingerprint() string { return c.fingerprint }

// do issues exactly one HTTP call. The request hooks run before the call,
// the response hooks after the body has been read; a non-2xx outcome is
// returned as a *StatusError once the hooks have had their chance to react.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, int, error) {
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("gateway: build request failed: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	for _, hook := range c.reqHooks {
		if err = hook.PrepareRequest(req); err != nil {
			return nil, 0, fmt.Errorf("gateway: request hook failed: %w", err)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Warnf("gateway: close response body failed: %v", errClose)
		}
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("gateway: read response failed: %w", err)
	}
	data, err := decompress(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		log.Warnf("gateway: decompress response failed: %v", err)
		data = raw
	}
	for _, hook := range c.respHooks {
		if hook.HandleResponse(req, resp) {
			break
		}
	}
	if resp.StatusCode >= 400 {
		return data, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	return data, err
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(body), "application/json")
	return data, err
}

func (c *Client) patch(ctx context.Context, path string, body []byte) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodPatch, path, nil, bytes.NewReader(body), "application/json")
	return data, err
}

func (c *Client) put(ctx context.Context, path string, body []byte) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodPut, path, nil, bytes.NewReader(body), "application/json")
	return data, err
}

func (c *Client) delete(ctx context.Context, path string, query url.Values) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodDelete, path, query, nil, "")
	return data, err
}

// decompress undoes the response content encoding. Unknown or absent
// encodings return the payload as-is.
func decompress(encoding string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	switch strings.ToLower(encoding) {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create gzip reader failed: %w", err)
		}
		defer func() { _ = reader.Close() }()
		return io.ReadAll(reader)
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = reader.Close() }()
		return io.ReadAll(reader)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case "zstd":
		reader, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create zstd reader failed: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader)
	default:
		return data, nil
	}
}
