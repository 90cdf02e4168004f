package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const authQueueName = "auth.events"

// StartAuthConsumer connects to RabbitMQ, declares the durable
// auth.events queue and appends each received event to auth.log inside
// the log directory, where the viewer serves it like any other file. The
// function runs a reconnect loop with backoff and keeps running across
// broker restarts; processing errors are logged and the offending message
// rejected without requeue.
func StartAuthConsumer(url, logDir string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("auth-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, logDir); err != nil {
			log.Printf("auth-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(authQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(authQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendEvent(logDir, d.Body); err != nil {
			log.Printf("auth-consumer: record event failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// appendEvent writes one event as a single bracketed-timestamp line.
func appendEvent(logDir string, body []byte) error {
	var ev AuthEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "auth.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open auth log: %w", err)
	}
	defer f.Close()

	at := ev.At
	if at == "" {
		at = time.Now().Format(TimeLayout)
	}
	line := fmt.Sprintf("[%s] auth %s | user=%q | user_id=%d | ip=%s\n",
		at, ev.Event, ev.Username, ev.UserID, ev.RemoteIP)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write auth log: %w", err)
	}
	return nil
}
