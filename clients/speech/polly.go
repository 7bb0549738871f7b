package speech

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// PollyClient implements Client on AWS Polly. It prefers the neural engine
// and falls back to standard when a voice does not support it.
type PollyClient struct {
	client *polly.Client
	engine types.Engine
}

// NewPollyClient loads the default AWS credential chain for the given region.
func NewPollyClient(ctx context.Context, region string, engine string) (*PollyClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	e := types.EngineStandard
	if engine == "neural" {
		e = types.EngineNeural
	}
	return &PollyClient{
		client: polly.NewFromConfig(cfg),
		engine: e,
	}, nil
}

// Synthesize converts text to MP3 audio with the given Polly voice.
func (c *PollyClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	out, err := c.synthesize(ctx, text, voiceID, c.engine)
	if err != nil && c.engine == types.EngineNeural {
		// Not every voice supports neural synthesis.
		log.Printf("Neural synthesis failed for voice %s, retrying with standard engine: %v", voiceID, err)
		out, err = c.synthesize(ctx, text, voiceID, types.EngineStandard)
	}
	if err != nil {
		return nil, fmt.Errorf("Polly synthesis error: %w", err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read Polly audio stream: %w", err)
	}
	return audio, nil
}

func (c *PollyClient) synthesize(ctx context.Context, text, voiceID string, engine types.Engine) (*polly.SynthesizeSpeechOutput, error) {
	return c.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(voiceID),
		Engine:       engine,
		TextType:     types.TextTypeText,
	})
}
