package main

import (
	"context"
	"log"

	"github.com/NicoHurtado/prompt2course/internal/platform"
	"github.com/NicoHurtado/prompt2course/tasks"
	"github.com/NicoHurtado/prompt2course/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	gen := platform.NewGenerationClient()
	videos := platform.NewVideoSearchClient(ctx)
	podcast := platform.NewPodcastGenerator(ctx)

	processor := worker.NewProcessor(db, rdb, gen, videos, podcast)
	processor.Register(tasks.QueueCourseMetadata, processor.HandleMetadataGeneration)
	processor.Register(tasks.QueueModuleOne, processor.HandleModuleOneGeneration)
	processor.Register(tasks.QueueRemainingModules, processor.HandleRemainingModules)
	processor.Register(tasks.QueueRegenerateModules, processor.HandleRegenerateModules)

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx,
		tasks.QueueCourseMetadata,
		tasks.QueueModuleOne,
		tasks.QueueRemainingModules,
		tasks.QueueRegenerateModules,
	)
}
