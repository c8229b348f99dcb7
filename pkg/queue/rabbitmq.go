package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/pkg/logger"
)

const (
	Exchange               = "activity_events"
	RoutingKeyActivityDone = "activity.completed"
	QueueSegmentMatching   = "segment_matching"
	reconnectInterval      = 10 * time.Second
)

// ActivityCompletedMessage is the payload published when an activity is
// finalized and ready for segment matching.
type ActivityCompletedMessage struct {
	ActivityID  primitive.ObjectID `json:"activity_id"`
	UserID      primitive.ObjectID `json:"user_id"`
	PublishedAt time.Time          `json:"published_at"`
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type RabbitMQ struct {
	cfg          RabbitMQConfig
	log          *logger.Logger
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	mu           sync.Mutex
}

func NewRabbitMQ(cfg RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		cfg: cfg,
		log: log,
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return r, nil
}

// PublishActivityCompleted enqueues an activity for background segment
// matching. Messages are persistent so a broker restart does not lose
// pending work.
func (r *RabbitMQ) PublishActivityCompleted(ctx context.Context, msg ActivityCompletedMessage) error {
	if r.conn.IsClosed() {
		r.log.Error("rabbitmq connection is closed, scheduling reconnect")
		go r.reconnect(context.Background())
		return errors.New("queue: connection is closed")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.ch.PublishWithContext(ctx, Exchange, RoutingKeyActivityDone, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// ConsumeActivityCompleted returns the delivery stream for the segment
// matching queue. Deliveries must be acked or nacked by the consumer.
func (r *RabbitMQ) ConsumeActivityCompleted(ctx context.Context, consumerName string) (<-chan amqp.Delivery, error) {
	return r.ch.ConsumeWithContext(ctx, QueueSegmentMatching, consumerName, false, false, false, false, nil)
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}

	return true
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}

	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%v:%v@%v:%v/%v",
		r.cfg.User,
		r.cfg.Password,
		r.cfg.Host,
		r.cfg.Port,
		r.cfg.VHost,
	))
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(QueueSegmentMatching, true, false, false, false, nil); err != nil {
		return err
	}

	if err := ch.QueueBind(QueueSegmentMatching, RoutingKeyActivityDone, Exchange, false, nil); err != nil {
		return err
	}

	r.conn = conn
	r.ch = ch
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := r.connect(); err == nil {
				r.log.Info("rabbitmq reconnected")
				r.mu.Lock()
				r.reconnecting = false
				r.mu.Unlock()
				return
			}
			r.log.Warn("rabbitmq reconnect attempt failed")

		case <-ctx.Done():
			return
		}
	}
}
