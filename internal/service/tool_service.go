package service

import (
	"context"

	"research-agent-be/internal/dto"
	"research-agent-be/pkg/mcp"
)

type IToolService interface {
	Catalog(ctx context.Context) *dto.ToolsResponse
}

type ToolCatalog interface {
	Providers() []mcp.ProviderStatus
	ListTools(ctx context.Context) []mcp.ToolDescriptor
}

type toolService struct {
	catalog ToolCatalog
}

func NewToolService(catalog ToolCatalog) IToolService {
	return &toolService{catalog: catalog}
}

func (s *toolService) Catalog(ctx context.Context) *dto.ToolsResponse {
	tools := s.catalog.ListTools(ctx)
	if tools == nil {
		tools = []mcp.ToolDescriptor{}
	}
	return &dto.ToolsResponse{
		Providers: s.catalog.Providers(),
		Tools:     tools,
	}
}
