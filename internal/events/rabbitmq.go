package events

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	conn          *amqp.Connection
	channel       *amqp.Channel
	connectionURI string
	isConnected   bool
}

func NewRabbitMQClient(connectionURI string) (*RabbitMQClient, error) {
	client := &RabbitMQClient{
		connectionURI: connectionURI,
		isConnected:   false,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *RabbitMQClient) connect() error {
	var err error

	c.conn, err = amqp.Dial(c.connectionURI)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	c.isConnected = true

	go c.monitorConnection()

	return nil
}

func (c *RabbitMQClient) monitorConnection() {
	connCloseChan := make(chan *amqp.Error)
	c.conn.NotifyClose(connCloseChan)

	chanCloseChan := make(chan *amqp.Error)
	c.channel.NotifyClose(chanCloseChan)

	for {
		select {
		case err := <-connCloseChan:
			c.isConnected = false
			log.Printf("RabbitMQ connection closed: %v, attempting to reconnect...", err)
			c.reconnect()
			return
		case err := <-chanCloseChan:
			if c.isConnected {
				log.Printf("RabbitMQ channel closed: %v, reopening...", err)
				c.reopenChannel()
			}
		}
	}
}

func (c *RabbitMQClient) reconnect() {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		time.Sleep(backoff)

		err := c.connect()
		if err == nil {
			log.Println("Successfully reconnected to RabbitMQ")

			if err := c.setupExchangesAndQueues(); err != nil {
				log.Printf("Failed to setup exchanges after reconnection: %v", err)
				continue
			}

			return
		}

		log.Printf("Failed to reconnect to RabbitMQ: %v", err)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *RabbitMQClient) reopenChannel() {
	if c.channel != nil {
		c.channel.Close()
	}

	var err error
	c.channel, err = c.conn.Channel()
	if err != nil {
		log.Printf("Failed to reopen channel: %v", err)
		c.isConnected = false
		c.reconnect()
		return
	}

	if err := c.setupExchangesAndQueues(); err != nil {
		log.Printf("Failed to setup exchanges after reopening channel: %v", err)
		c.isConnected = false
		c.reconnect()
		return
	}

	log.Println("Successfully reopened RabbitMQ channel")
}

// setupExchangesAndQueues declares the exchanges and queues this service
// publishes to. Downstream consumers (audit, reporting) bind their own
// queues to these exchanges.
func (c *RabbitMQClient) setupExchangesAndQueues() error {
	err := c.channel.ExchangeDeclare(
		"access-events", // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare access-events exchange: %w", err)
	}

	err = c.channel.ExchangeDeclare(
		"account-events", // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare account-events exchange: %w", err)
	}

	// Audit queue gets every grant mutation and sync summary.
	_, err = c.channel.QueueDeclare(
		"access.audit", // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare audit queue: %w", err)
	}

	err = c.channel.QueueBind(
		"access.audit",  // queue name
		"grant.*",       // routing key
		"access-events", // exchange
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind audit queue: %w", err)
	}

	err = c.channel.QueueBind(
		"access.audit",
		"directory.*",
		"access-events",
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind audit queue for sync events: %w", err)
	}

	return nil
}

func (c *RabbitMQClient) PublishEvent(exchange, routingKey string, body []byte) error {
	if !c.isConnected {
		return fmt.Errorf("not connected to RabbitMQ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (c *RabbitMQClient) Close() error {
	c.isConnected = false

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
