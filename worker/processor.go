package worker

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/clients/videosearch"
	"github.com/NicoHurtado/prompt2course/processing"
	"github.com/NicoHurtado/prompt2course/tasks"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Queue enqueues stage tasks. The Redis implementation backs production;
// tests substitute an in-memory fake.
type Queue interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}) error
}

// RedisQueue implements Queue on a Redis list per queue name.
type RedisQueue struct {
	RDB *redis.Client
}

// Enqueue pushes the JSON payload onto the named queue.
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return q.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Processor holds the pipeline dependencies and registered task handlers.
// Clients are injected explicitly so tests can substitute fakes.
type Processor struct {
	DB      *gorm.DB
	RDB     *redis.Client
	Queue   Queue
	Gen     generation.Client
	Videos  videosearch.Client
	Podcast *processing.PodcastGenerator

	handlers map[string]TaskHandler
}

// NewProcessor creates a new worker processor.
func NewProcessor(db *gorm.DB, rdb *redis.Client, gen generation.Client, videos videosearch.Client, podcast *processing.PodcastGenerator) *Processor {
	return &Processor{
		DB:       db,
		RDB:      rdb,
		Queue:    &RedisQueue{RDB: rdb},
		Gen:      gen,
		Videos:   videos,
		Podcast:  podcast,
		handlers: make(map[string]TaskHandler),
	}
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	log.Printf("Registered handler for queue: %s", queueName)
}

// Enqueue is a helper to add a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	return p.Queue.Enqueue(ctx, queueName, payload)
}

// Listen starts the worker, listening on all registered queues.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	log.Printf("Worker listening on %d queues: %v", len(queueNames), queueNames)

	for {
		// BRPop blocks until a task is available on any of the listed queues.
		result, err := p.RDB.BRPop(ctx, 0, queueNames...).Result()
		if err != nil {
			log.Printf("Error popping from queue: %v", err)
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			log.Printf("No handler registered for queue %s, dropping task", queueName)
			continue
		}

		if err := handler(ctx, payload); err != nil {
			log.Printf("Handler for queue %s failed: %v", queueName, err)
		}
	}
}
