package supervisor

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"log/slog"

	"github.com/senzing-garage/redoer/internal/config"
	"github.com/senzing-garage/redoer/internal/transport"
	"github.com/senzing-garage/redoer/internal/transport/amqptransport"
	"github.com/senzing-garage/redoer/internal/transport/azuretransport"
	"github.com/senzing-garage/redoer/internal/transport/kafkatransport"
	"github.com/senzing-garage/redoer/internal/transport/sqstransport"
)

// closer is satisfied by adapters with an underlying connection worth
// releasing on shutdown; not every adapter needs one. The SDKs differ
// on whether Close takes a context, so each is wrapped to this one
// shape.
type closer interface {
	Close(ctx context.Context) error
}

// closerFunc adapts a plain func(context.Context) error to closer.
type closerFunc func(ctx context.Context) error

func (f closerFunc) Close(ctx context.Context) error { return f(ctx) }

// newBusAdapter dials the named bus for the given (role) endpoint and
// returns a ready transport.Adapter, plus anything that should be
// closed when the pipeline stops.
func newBusAdapter(ctx context.Context, bus config.Bus, endpoint config.Endpoint, cfg *config.Config, logger *slog.Logger) (transport.Adapter, []closer, error) {
	switch bus {
	case config.BusRabbitMQ:
		return newAMQPAdapter(endpoint, cfg, logger)
	case config.BusKafka:
		return newKafkaAdapter(endpoint, logger)
	case config.BusSQS:
		return newSQSAdapter(ctx, endpoint, cfg, logger)
	case config.BusAzureQueue:
		return newAzureAdapter(ctx, endpoint, logger)
	default:
		return nil, nil, fmt.Errorf("supervisor: unsupported bus %q", bus)
	}
}

func newAMQPAdapter(endpoint config.Endpoint, cfg *config.Config, logger *slog.Logger) (transport.Adapter, []closer, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s/", endpoint.Username, endpoint.Password, endpoint.Host)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("supervisor: amqp channel: %w", err)
	}

	adapter, err := amqptransport.New(ch, amqptransport.Config{
		URL:                 url,
		Exchange:            fmt.Sprintf("%s-exchange", endpoint.Queue),
		Queue:               endpoint.Queue,
		RoutingKey:          endpoint.Queue,
		DeliveryMode:        uint8(cfg.RabbitMQDeliveryMode),
		PrefetchCount:       cfg.RabbitMQPrefetchCount,
		UseExistingEntities: cfg.RabbitMQUseExistingEntities,
		ReconnectDelay:      cfg.RabbitMQReconnectDelay,
		Heartbeat:           cfg.RabbitMQHeartbeat,
	}, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return adapter, []closer{closerFunc(func(context.Context) error { return conn.Close() })}, nil
}

func newKafkaAdapter(endpoint config.Endpoint, logger *slog.Logger) (transport.Adapter, []closer, error) {
	brokers := strings.Split(endpoint.Host, ",")
	topic := endpoint.Topic
	if topic == "" {
		topic = endpoint.Queue
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: "redoer",
	})

	adapter := kafkatransport.New(w, r, kafkatransport.Config{Brokers: brokers, Topic: topic, GroupID: "redoer"}, logger)
	return adapter, []closer{
		closerFunc(func(context.Context) error { return w.Close() }),
		closerFunc(func(context.Context) error { return r.Close() }),
	}, nil
}

func newSQSAdapter(ctx context.Context, endpoint config.Endpoint, cfg *config.Config, logger *slog.Logger) (transport.Adapter, []closer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: aws config: %w", err)
	}
	client := sqs.NewFromConfig(awsCfg)

	adapter := sqstransport.New(client, sqstransport.Config{
		QueueURL:          endpoint.Queue,
		WaitTimeSeconds:   20,
		MaxMessages:       1,
		VisibilityTimeout: 30,
	}, logger)
	return adapter, nil, nil
}

func newAzureAdapter(ctx context.Context, endpoint config.Endpoint, logger *slog.Logger) (transport.Adapter, []closer, error) {
	client, err := azservicebus.NewClientFromConnectionString(endpoint.Host, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: azure client: %w", err)
	}
	sender, err := client.NewSender(endpoint.Queue, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: azure sender: %w", err)
	}
	receiver, err := client.NewReceiverForQueue(endpoint.Queue, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: azure receiver: %w", err)
	}

	adapter := azuretransport.New(sender, receiver, azuretransport.Config{QueueOrTopic: endpoint.Queue}, logger)
	return adapter, []closer{
		closerFunc(func(ctx context.Context) error { return sender.Close(ctx) }),
		closerFunc(func(ctx context.Context) error { return receiver.Close(ctx) }),
		closerFunc(func(ctx context.Context) error { return client.Close(ctx) }),
	}, nil
}
