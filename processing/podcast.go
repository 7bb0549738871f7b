package processing

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NicoHurtado/prompt2course/clients/speech"
	"github.com/NicoHurtado/prompt2course/storage"
)

// Dialogue speakers recognized in generated podcast scripts.
const (
	SpeakerMaria  = "MARIA"
	SpeakerCarlos = "CARLOS"
)

// wordsPerMinute is the speech rate used for duration estimates.
const wordsPerMinute = 150

// PodcastResult describes a synthesized and stored podcast.
type PodcastResult struct {
	AudioURL        string
	ObjectKey       string
	DurationSeconds int
	SegmentCount    int
	SpeakerCount    int
}

// PodcastGenerator synthesizes a two-voice podcast from a dialogue script and
// uploads the result to the object store.
type PodcastGenerator struct {
	Speech    speech.Client
	Store     storage.ObjectStore
	Assembler *AudioAssembler

	// Polly voice ids per host; unknown speakers use FemaleVoice.
	FemaleVoice string
	MaleVoice   string

	// URLExpiry bounds the presigned retrieval URL lifetime.
	URLExpiry time.Duration
}

// NewPodcastGenerator wires a generator with the default voices and expiry.
func NewPodcastGenerator(speechClient speech.Client, store storage.ObjectStore) *PodcastGenerator {
	return &PodcastGenerator{
		Speech:      speechClient,
		Store:       store,
		Assembler:   NewAudioAssembler(),
		FemaleVoice: "Lupe",
		MaleVoice:   "Miguel",
		URLExpiry:   7 * 24 * time.Hour,
	}
}

// Generate parses the script, synthesizes each speaker turn, assembles the
// segments and uploads the audio. The returned URL is time-limited.
func (g *PodcastGenerator) Generate(ctx context.Context, script string, courseID string) (*PodcastResult, error) {
	segments := ParseDialogue(script)
	if len(segments) == 0 {
		return nil, fmt.Errorf("podcast script has no parseable dialogue")
	}

	speakers := map[string]bool{}
	totalWords := 0
	var audioSegments [][]byte
	for _, segment := range segments {
		clean := CleanTextForSpeech(segment.Text)
		if clean == "" {
			continue
		}
		voice := g.voiceForSpeaker(segment.Speaker)
		audio, err := g.Speech.Synthesize(ctx, clean, voice)
		if err != nil {
			return nil, &TransientServiceError{Service: "speech synthesis", Err: err}
		}
		audioSegments = append(audioSegments, audio)
		speakers[segment.Speaker] = true
		totalWords += len(strings.Fields(clean))
	}
	if len(audioSegments) == 0 {
		return nil, fmt.Errorf("podcast script produced no synthesizable text")
	}

	assembled, err := g.Assembler.Assemble(audioSegments)
	if err != nil {
		return nil, fmt.Errorf("assemble podcast audio: %w", err)
	}

	key := fmt.Sprintf("audios/podcast_%s_%s.mp3", courseID, uuid.NewString()[:8])
	if err := g.Store.PutAudio(ctx, key, assembled); err != nil {
		return nil, &TransientServiceError{Service: "audio storage", Err: err}
	}

	url, err := g.Store.PresignGet(ctx, key, g.URLExpiry)
	if err != nil {
		return nil, &TransientServiceError{Service: "audio storage", Err: err}
	}

	duration := totalWords * 60 / wordsPerMinute
	if duration < 1 {
		duration = 1
	}

	log.Printf("Podcast generated for course %s: %d segments, ~%ds", courseID, len(audioSegments), duration)
	return &PodcastResult{
		AudioURL:        url,
		ObjectKey:       key,
		DurationSeconds: duration,
		SegmentCount:    len(audioSegments),
		SpeakerCount:    len(speakers),
	}, nil
}

// voiceForSpeaker maps a dialogue speaker to a configured voice.
func (g *PodcastGenerator) voiceForSpeaker(speaker string) string {
	switch strings.ToUpper(speaker) {
	case SpeakerMaria, "MARÍA":
		return g.FemaleVoice
	case SpeakerCarlos:
		return g.MaleVoice
	default:
		return g.FemaleVoice
	}
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
	codeRe   = regexp.MustCompile("`(.*?)`")
	headerRe = regexp.MustCompile(`#+ `)
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// acronymReplacements spell out terms TTS engines mangle.
var acronymReplacements = [][2]string{
	{"HTTPS", "H T T P S"},
	{"HTTP", "H T T P"},
	{"HTML", "H T M L"},
	{"JSON", "J S O N"},
	{"API", "A P I"},
	{"URL", "U R L"},
	{"CSS", "C S S"},
	{"XML", "X M L"},
	{"SQL", "S Q L"},
}

// CleanTextForSpeech strips markdown artifacts and spells out common acronyms
// so synthesized speech reads naturally.
func CleanTextForSpeech(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "\n", " ")
	text = spacesRe.ReplaceAllString(text, " ")

	for _, r := range acronymReplacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}
	return strings.TrimSpace(text)
}
