package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"research-agent-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultCallTimeout = 30 * time.Second
	DefaultCatalogTTL  = 5 * time.Minute

	// unreachable providers are retried after this long
	failedCatalogTTL = 30 * time.Second
)

// ToolDescriptor is a namespaced tool, ready to be shown to the policy.
type ToolDescriptor struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	InputSchema  any    `json:"inputSchema,omitempty"`
	Provider     string `json:"provider"`
	OriginalName string `json:"originalName"`
}

type ProviderStatus struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// CallObserver is told about every tool call that reached a provider.
type CallObserver interface {
	ObserveToolCall(provider string)
}

// Registry dispatches "<provider>_<tool>" names to their MCP server.
// Configuration problems are returned as result strings, never as errors.
type Registry struct {
	providers map[string]Provider
	order     []string
	dial      Dialer
	timeout   time.Duration
	catalog   *cache.Cache
	observer  CallObserver
	logger    logger.ILogger
}

type Option func(*Registry)

func WithDialer(d Dialer) Option {
	return func(r *Registry) { r.dial = d }
}

func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithCatalogTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.catalog = cache.New(d, 2*d)
		}
	}
}

func WithCallObserver(o CallObserver) Option {
	return func(r *Registry) { r.observer = o }
}

func NewRegistry(providers []Provider, log logger.ILogger, opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[string]Provider, len(providers)),
		dial:      DialMCP,
		timeout:   DefaultCallTimeout,
		catalog:   cache.New(DefaultCatalogTTL, 2*DefaultCatalogTTL),
		logger:    log,
	}
	for _, p := range providers {
		if _, dup := r.providers[p.Name]; !dup {
			r.order = append(r.order, p.Name)
		}
		r.providers[p.Name] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SplitToolName separates the provider prefix from the remote tool name.
func SplitToolName(name string) (provider, tool string, ok bool) {
	provider, tool, ok = strings.Cut(name, "_")
	if !ok || provider == "" || tool == "" {
		return "", "", false
	}
	return provider, tool, true
}

func (r *Registry) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(r.order))
	for _, name := range r.order {
		p := r.providers[name]
		out = append(out, ProviderStatus{Name: p.Name, URL: p.URL, Enabled: p.Enabled})
	}
	return out
}

// ListTools gathers the catalog of every enabled provider. A provider that
// cannot be reached contributes no tools.
func (r *Registry) ListTools(ctx context.Context) []ToolDescriptor {
	var all []ToolDescriptor
	for _, name := range r.order {
		p := r.providers[name]
		if !p.Enabled {
			continue
		}
		all = append(all, r.providerTools(ctx, p)...)
	}
	return all
}

func (r *Registry) providerTools(ctx context.Context, p Provider) []ToolDescriptor {
	if cached, ok := r.catalog.Get(p.Name); ok {
		return cached.([]ToolDescriptor)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session, err := r.dial(ctx, p)
	if err != nil {
		r.logger.Warn("ToolRegistry", "Failed to connect to tool provider", map[string]interface{}{
			"provider": p.Name,
			"error":    err.Error(),
		})
		r.catalog.Set(p.Name, []ToolDescriptor(nil), failedCatalogTTL)
		return nil
	}
	defer session.Close()

	remote, err := session.ListTools(ctx)
	if err != nil {
		r.logger.Warn("ToolRegistry", "Failed to list tools", map[string]interface{}{
			"provider": p.Name,
			"error":    err.Error(),
		})
		r.catalog.Set(p.Name, []ToolDescriptor(nil), failedCatalogTTL)
		return nil
	}

	tools := make([]ToolDescriptor, 0, len(remote))
	for _, t := range remote {
		tools = append(tools, ToolDescriptor{
			Name:         p.Name + "_" + t.Name,
			Description:  fmt.Sprintf("[%s] %s", strings.ToUpper(p.Name), t.Description),
			InputSchema:  t.InputSchema,
			Provider:     p.Name,
			OriginalName: t.Name,
		})
	}
	sort.SliceStable(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	r.catalog.Set(p.Name, tools, cache.DefaultExpiration)
	return tools
}

// CallTool always returns a string. Failures are described in the string.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) string {
	providerName, tool, ok := SplitToolName(name)
	if !ok {
		return fmt.Sprintf("Error: Invalid tool name format: %s", name)
	}
	p, ok := r.providers[providerName]
	if !ok {
		return fmt.Sprintf("Error: Unknown server: %s", providerName)
	}
	if !p.Enabled {
		return fmt.Sprintf("Error: Server %s is not configured (missing credentials)", providerName)
	}
	if args == nil {
		args = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.observer != nil {
		r.observer.ObserveToolCall(providerName)
	}

	result, err := r.call(ctx, p, tool, args)
	if err != nil {
		r.logger.Error("ToolRegistry", "Tool call failed", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	return result
}

func (r *Registry) call(ctx context.Context, p Provider, tool string, args map[string]any) (string, error) {
	session, err := r.dial(ctx, p)
	if err != nil {
		return "", err
	}
	defer session.Close()
	return session.CallTool(ctx, tool, args)
}
