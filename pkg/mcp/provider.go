package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	TransportSSE        = "sse"
	TransportStreamable = "streamable"
)

// Provider is one remote MCP server. Enabled is false when its credentials are missing.
type Provider struct {
	Name       string
	URL        string
	Transport  string
	AuthHeader string
	Enabled    bool
}

// RemoteTool is a tool as advertised by its server, before namespacing.
type RemoteTool struct {
	Name        string
	Description string
	InputSchema any
}

// Session is a connected, initialised MCP client.
type Session interface {
	ListTools(ctx context.Context) ([]RemoteTool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// Dialer opens a session against a provider.
type Dialer func(ctx context.Context, p Provider) (Session, error)

type clientSession struct {
	c *client.Client
}

// DialMCP connects with mcp-go and runs the initialize handshake.
func DialMCP(ctx context.Context, p Provider) (Session, error) {
	headers := map[string]string{}
	if p.AuthHeader != "" {
		headers["Authorization"] = p.AuthHeader
	}

	var (
		c   *client.Client
		err error
	)
	switch p.Transport {
	case TransportStreamable:
		c, err = client.NewStreamableHttpClient(p.URL, transport.WithHTTPHeaders(headers))
	default:
		c, err = client.NewSSEMCPClient(p.URL, client.WithHeaders(headers))
	}
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start mcp transport: %w", err)
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "research-agent", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, init); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return &clientSession{c: c}, nil
}

func (s *clientSession) ListTools(ctx context.Context) ([]RemoteTool, error) {
	res, err := s.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	tools := make([]RemoteTool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, RemoteTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return tools, nil
}

// CallTool returns the first text block of the result. Results without text
// are rendered with %v.
func (s *clientSession) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.c.CallTool(ctx, req)
	if err != nil {
		return "", err
	}
	if len(res.Content) > 0 {
		if text, ok := mcp.AsTextContent(res.Content[0]); ok {
			return text.Text, nil
		}
	}
	return fmt.Sprintf("%v", res.Content), nil
}

func (s *clientSession) Close() error {
	return s.c.Close()
}
