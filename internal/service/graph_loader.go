package service

import (
	"context"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/graph"
	"github.com/alexanderramin/expeditions/internal/repository"
)

// graphLoader builds adjacency graphs, serving frozen expeditions from the cache.
type graphLoader struct {
	pins  repository.PinRepo
	conns repository.ConnectionRepo
	cache *graph.Cache
}

func (l graphLoader) load(ctx context.Context, exp *domain.Expedition) (*graph.Graph, error) {
	if exp.IsFrozen() && l.cache != nil {
		if g, ok := l.cache.Get(exp.ID); ok {
			return g, nil
		}
	}
	pins, err := l.pins.ListByExpedition(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	conns, err := l.conns.ListByExpedition(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	g, err := graph.New(exp.ID, pins, conns)
	if err != nil {
		return nil, err
	}
	if exp.IsFrozen() && l.cache != nil {
		l.cache.Put(g)
	}
	return g, nil
}
