package service

import "github.com/playlog/internal/domain"

// Notifier is told about changes so connected clients can refresh
type Notifier interface {
	PlaysChanged(event domain.PlayCreatedEvent)
	CollectionChanged(event domain.CollectionEvent)
}

// NopNotifier discards notifications
type NopNotifier struct{}

// PlaysChanged does nothing
func (NopNotifier) PlaysChanged(domain.PlayCreatedEvent) {}

// CollectionChanged does nothing
func (NopNotifier) CollectionChanged(domain.CollectionEvent) {}
