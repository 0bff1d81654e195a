package ecs

import "go.uber.org/zap"

type Option func(w *World)

// WithInitialCapacity sizes the entity table and every component store for n
// entities up front.
func WithInitialCapacity(n int) Option {
	return func(w *World) {
		w.initialCapacity = n
	}
}

// WithMaxEntities caps the number of entity indexes the World will issue.
// CreateEntity fails with ErrCapacityExceeded beyond it.
func WithMaxEntities(n int) Option {
	return func(w *World) {
		w.maxEntities = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}
