package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"popolo/internal/popolo"
)

// Source supplies the aggregate the tools read.
type Source interface {
	Dataset(ctx context.Context) (*popolo.Popolo, error)
}

type Server struct {
	source Source
	mcp    *sdk.Server

	mu     sync.Mutex
	loaded *popolo.Popolo
}

func NewServer(source Source, version string) *Server {
	s := &Server{
		source: source,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "popolo",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// dataset loads the aggregate on first use and keeps it. Failed loads are
// retried on the next call.
func (s *Server) dataset(ctx context.Context) (*popolo.Popolo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		return s.loaded, nil
	}
	p, err := s.source.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	s.loaded = p
	return p, nil
}
