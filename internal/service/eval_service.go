package service

import (
	"research-agent-be/internal/dto"
	"research-agent-be/pkg/metrics"
)

type IEvalService interface {
	Recent() *dto.EvalsResponse
}

type evalService struct {
	evals *metrics.EvalBuffer
}

func NewEvalService(evals *metrics.EvalBuffer) IEvalService {
	return &evalService{evals: evals}
}

func (s *evalService) Recent() *dto.EvalsResponse {
	recent := s.evals.Recent()
	if recent == nil {
		recent = []metrics.EvalEntry{}
	}
	return &dto.EvalsResponse{Recent: recent}
}
