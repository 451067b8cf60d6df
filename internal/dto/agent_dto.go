package dto

import (
	"research-agent-be/pkg/mcp"
	"research-agent-be/pkg/metrics"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type EvalsResponse struct {
	Recent []metrics.EvalEntry `json:"recent"`
}

type MemoryStatsResponse struct {
	SessionId     string `json:"sessionId"`
	TotalMemories int    `json:"totalMemories"`
	WindowSize    int    `json:"windowSize"`
	Backend       string `json:"backend"`
}

type MemoryClearResponse struct {
	SessionId string `json:"sessionId"`
	Deleted   int    `json:"deleted"`
}

type ToolsResponse struct {
	Providers []mcp.ProviderStatus `json:"providers"`
	Tools     []mcp.ToolDescriptor `json:"tools"`
}

type EndpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type ApiDocsResponse struct {
	Name           string        `json:"name"`
	Version        string        `json:"version"`
	Description    string        `json:"description"`
	Endpoints      []EndpointDoc `json:"endpoints"`
	ExampleRequest ChatRequest   `json:"exampleRequest"`
}
