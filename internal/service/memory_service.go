package service

import (
	"context"
	"fmt"

	"research-agent-be/internal/dto"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/memory"
)

type IMemoryService interface {
	Stats(ctx context.Context, sessionID string) (*dto.MemoryStatsResponse, error)
	Clear(ctx context.Context, sessionID string) (*dto.MemoryClearResponse, error)
}

type MemoryAdmin interface {
	Stats(ctx context.Context, sessionID string) (memory.Stats, error)
	Clear(ctx context.Context, sessionID string) (int, error)
}

type memoryService struct {
	memory MemoryAdmin
	logger logger.ILogger
}

func NewMemoryService(mem MemoryAdmin, log logger.ILogger) IMemoryService {
	return &memoryService{memory: mem, logger: log}
}

func (s *memoryService) Stats(ctx context.Context, sessionID string) (*dto.MemoryStatsResponse, error) {
	stats, err := s.memory.Stats(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("memory stats: %w", err)
	}
	return &dto.MemoryStatsResponse{
		SessionId:     stats.SessionID,
		TotalMemories: stats.TotalMemories,
		WindowSize:    stats.WindowSize,
		Backend:       stats.Backend,
	}, nil
}

func (s *memoryService) Clear(ctx context.Context, sessionID string) (*dto.MemoryClearResponse, error) {
	deleted, err := s.memory.Clear(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("clear memory: %w", err)
	}
	s.logger.Info("MemoryService", "Session memory cleared", map[string]interface{}{
		"session_id": sessionID,
		"deleted":    deleted,
	})
	return &dto.MemoryClearResponse{SessionId: sessionID, Deleted: deleted}, nil
}
