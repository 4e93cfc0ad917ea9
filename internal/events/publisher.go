package events

import (
	"context"
	"log"

	"fiscal_service/internal/models"
)

type Publisher interface {
	PublishGrantEvent(ctx context.Context, eventType EventType, grant *models.AccessGrant, actedBy string) error
	PublishDirectorySynced(ctx context.Context, username string, matchedGroups, created, updated int, isAdmin bool) error
	PublishAccountRegistered(ctx context.Context, userID, username, email string) error

	// Close closes the publisher and releases resources
	Close() error
}

type EventPublisher struct {
	rabbitMQ *RabbitMQClient
	enabled  bool
}

func NewEventPublisher(rabbitURI string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{
			rabbitMQ: nil,
			enabled:  false,
		}, nil
	}

	client, err := NewRabbitMQClient(rabbitURI)
	if err != nil {
		return nil, err
	}

	err = client.setupExchangesAndQueues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EventPublisher{
		rabbitMQ: client,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) PublishGrantEvent(ctx context.Context, eventType EventType, grant *models.AccessGrant, actedBy string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping grant event")
		return nil
	}

	event := NewGrantEvent(eventType, grant, actedBy)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("access-events", string(eventType), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published %s event for grant %s on RC %s", eventType, event.GrantID, event.RCID)
	return nil
}

func (p *EventPublisher) PublishDirectorySynced(ctx context.Context, username string, matchedGroups, created, updated int, isAdmin bool) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping DirectorySynced event")
		return nil
	}

	event := NewDirectorySyncedEvent(username, matchedGroups, created, updated, isAdmin)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("access-events", string(DirectorySynced), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published DirectorySynced event for user: %s", username)
	return nil
}

func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, userID, username, email string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping AccountRegistered event")
		return nil
	}

	event := NewAccountRegisteredEvent(userID, username, email)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("account-events", string(AccountRegistered), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published AccountRegistered event for user ID: %s", userID)
	return nil
}

// Close releases resources
func (p *EventPublisher) Close() error {
	if !p.enabled || p.rabbitMQ == nil {
		return nil
	}

	return p.rabbitMQ.Close()
}
