package platform

import (
	"context"
	"log"
	"os"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/clients/speech"
	"github.com/NicoHurtado/prompt2course/clients/videosearch"
	"github.com/NicoHurtado/prompt2course/processing"
	"github.com/NicoHurtado/prompt2course/storage"
)

// NewGenerationClient builds the OpenAI content-generation client from env.
func NewGenerationClient() generation.Client {
	client, err := generation.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}
	return client
}

// NewVideoSearchClient builds the YouTube search client from env.
func NewVideoSearchClient(ctx context.Context) videosearch.Client {
	client, err := videosearch.NewYouTubeClient(ctx, os.Getenv("YOUTUBE_DATA_API_KEY"))
	if err != nil {
		log.Fatalf("Failed to create video search client: %v", err)
	}
	return client
}

// NewPodcastGenerator wires Polly, the audio object store, and the assembler.
// Podcast synthesis is optional: with AWS or object-store config missing the
// pipeline simply runs without audio.
func NewPodcastGenerator(ctx context.Context) *processing.PodcastGenerator {
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		log.Println("AWS credentials not configured, podcast synthesis disabled")
		return nil
	}

	speechClient, err := speech.NewPollyClient(ctx,
		Getenv("AWS_REGION", "us-east-2"),
		Getenv("AWS_POLLY_ENGINE", "standard"))
	if err != nil {
		log.Fatalf("Failed to create speech client: %v", err)
	}

	store, err := storage.NewMinioStore(
		Getenv("AUDIO_STORE_ENDPOINT", "s3.amazonaws.com"),
		os.Getenv("AWS_ACCESS_KEY_ID"),
		os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Getenv("AWS_S3_BUCKET", "prompt2course"),
		true)
	if err != nil {
		log.Fatalf("Failed to create audio object store: %v", err)
	}

	podcast := processing.NewPodcastGenerator(speechClient, store)
	podcast.FemaleVoice = Getenv("AWS_POLLY_VOICE_FEMALE", "Lupe")
	podcast.MaleVoice = Getenv("AWS_POLLY_VOICE_MALE", "Miguel")
	return podcast
}
