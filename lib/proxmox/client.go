// Package proxmox implements the authenticated HTTP client for the
// Proxmox VE REST API (/api2/json). The client holds no per-call mutable
// state; a single instance is shared by every manager and is safe for
// concurrent use.
package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API is the collaborator surface the managers depend on. It is satisfied
// by *Client and by the fakes used in tests.
type API interface {
	ListNodes(ctx context.Context) ([]Node, error)
	GetNodeStatus(ctx context.Context, node string) (*NodeStatus, error)
	GetClusterStatus(ctx context.Context) ([]ClusterStatusEntry, error)
	ListVMs(ctx context.Context, node string) ([]VMSummary, error)
	ListStorage(ctx context.Context, node string) ([]Storage, error)
	GetVMConfig(ctx context.Context, node string, vmid int) (*VMConfig, error)
	GetVMStatus(ctx context.Context, node string, vmid int) (*VMStatus, error)
	CreateVM(ctx context.Context, node string, params url.Values) (TaskRef, error)
	VMAction(ctx context.Context, node string, vmid int, action string) (TaskRef, error)
	DeleteVM(ctx context.Context, node string, vmid int) (TaskRef, error)
	AgentExec(ctx context.Context, node string, vmid int, command []string) (int, error)
	AgentExecStatus(ctx context.Context, node string, vmid int, pid int) (*ExecStatus, error)
}

// Config holds the connection settings for a Proxmox VE endpoint.
// Authentication uses an API token ("user@realm!tokenid" plus secret);
// password login and ticket renewal are deliberately not supported.
type Config struct {
	Host        string
	Port        int
	TokenID     string
	TokenSecret string
	InsecureTLS bool
	Timeout     time.Duration
}

// Client talks to one Proxmox VE endpoint. Fields are set at construction
// and never mutated afterwards.
type Client struct {
	baseURL    string
	authHeader string
	http       *http.Client
}

var _ API = (*Client)(nil)

// New builds a Client from cfg. The returned client reuses one underlying
// http.Client across all calls.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("proxmox host is required")
	}
	if cfg.TokenID == "" || cfg.TokenSecret == "" {
		return nil, fmt.Errorf("proxmox api token id and secret are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 8006
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:    fmt.Sprintf("https://%s:%d/api2/json", cfg.Host, port),
		authHeader: fmt.Sprintf("PVEAPIToken=%s=%s", cfg.TokenID, cfg.TokenSecret),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// APIError is a non-2xx response from the Proxmox API. Message carries the
// upstream body verbatim; Proxmox reports failures as free text, so the
// message is what error classification downstream matches against.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxmox api: %s", e.Status)
	}
	return fmt.Sprintf("proxmox api: %s: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}

	// Every successful Proxmox response wraps its payload in {"data": ...}.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%s %s: empty data in response", method, path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.do(ctx, http.MethodGet, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *Client) GetNodeStatus(ctx context.Context, node string) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.do(ctx, http.MethodGet, "/nodes/"+url.PathEscape(node)+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetClusterStatus(ctx context.Context) ([]ClusterStatusEntry, error) {
	var entries []ClusterStatusEntry
	if err := c.do(ctx, http.MethodGet, "/cluster/status", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) ListVMs(ctx context.Context, node string) ([]VMSummary, error) {
	var vms []VMSummary
	if err := c.do(ctx, http.MethodGet, qemuPath(node, ""), nil, &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

func (c *Client) ListStorage(ctx context.Context, node string) ([]Storage, error) {
	var storages []Storage
	if err := c.do(ctx, http.MethodGet, "/nodes/"+url.PathEscape(node)+"/storage", nil, &storages); err != nil {
		return nil, err
	}
	return storages, nil
}

func (c *Client) GetVMConfig(ctx context.Context, node string, vmid int) (*VMConfig, error) {
	var cfg VMConfig
	if err := c.do(ctx, http.MethodGet, vmPath(node, vmid, "/config"), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) GetVMStatus(ctx context.Context, node string, vmid int) (*VMStatus, error) {
	var status VMStatus
	if err := c.do(ctx, http.MethodGet, vmPath(node, vmid, "/status/current"), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) CreateVM(ctx context.Context, node string, params url.Values) (TaskRef, error) {
	var task TaskRef
	if err := c.do(ctx, http.MethodPost, qemuPath(node, ""), params, &task); err != nil {
		return "", err
	}
	return task, nil
}

func (c *Client) VMAction(ctx context.Context, node string, vmid int, action string) (TaskRef, error) {
	var task TaskRef
	if err := c.do(ctx, http.MethodPost, vmPath(node, vmid, "/status/"+action), url.Values{}, &task); err != nil {
		return "", err
	}
	return task, nil
}

func (c *Client) DeleteVM(ctx context.Context, node string, vmid int) (TaskRef, error) {
	var task TaskRef
	if err := c.do(ctx, http.MethodDelete, vmPath(node, vmid, ""), nil, &task); err != nil {
		return "", err
	}
	return task, nil
}

func (c *Client) AgentExec(ctx context.Context, node string, vmid int, command []string) (int, error) {
	form := url.Values{"command": command}
	var result struct {
		PID int `json:"pid"`
	}
	if err := c.do(ctx, http.MethodPost, vmPath(node, vmid, "/agent/exec"), form, &result); err != nil {
		return 0, err
	}
	return result.PID, nil
}

func (c *Client) AgentExecStatus(ctx context.Context, node string, vmid int, pid int) (*ExecStatus, error) {
	path := vmPath(node, vmid, "/agent/exec-status") + "?pid=" + strconv.Itoa(pid)
	var status ExecStatus
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func qemuPath(node, suffix string) string {
	return "/nodes/" + url.PathEscape(node) + "/qemu" + suffix
}

func vmPath(node string, vmid int, suffix string) string {
	return qemuPath(node, "/"+strconv.Itoa(vmid)) + suffix
}
