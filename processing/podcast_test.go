package processing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSpeech struct {
	voices []string
	texts  []string
}

func (s *stubSpeech) Synthesize(_ context.Context, text string, voiceID string) ([]byte, error) {
	s.voices = append(s.voices, voiceID)
	s.texts = append(s.texts, text)
	return []byte("audio:" + voiceID), nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) PutAudio(_ context.Context, key string, audio []byte) error {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = audio
	return nil
}

func (m *memoryStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://audio.test/" + key, nil
}

func newTestPodcastGenerator(speech *stubSpeech, store *memoryStore) *PodcastGenerator {
	g := NewPodcastGenerator(speech, store)
	// Keep tests off the ffmpeg binary.
	g.Assembler.FFmpegPath = "ffmpeg-not-present"
	return g
}

func TestPodcastGenerate(t *testing.T) {
	speech := &stubSpeech{}
	store := &memoryStore{}
	g := newTestPodcastGenerator(speech, store)

	script := `MARIA: Welcome everyone to this episode.
CARLOS: Thanks Maria, today we cover databases.
MARIA: Let's get started.`

	result, err := g.Generate(context.Background(), script, "course-abc")
	require.NoError(t, err)

	assert.Equal(t, []string{"Lupe", "Miguel", "Lupe"}, speech.voices)
	assert.Equal(t, 3, result.SegmentCount)
	assert.Equal(t, 2, result.SpeakerCount)
	assert.GreaterOrEqual(t, result.DurationSeconds, 1)
	assert.True(t, strings.HasPrefix(result.ObjectKey, "audios/podcast_course-abc_"))
	assert.True(t, strings.HasSuffix(result.ObjectKey, ".mp3"))
	assert.Equal(t, "https://audio.test/"+result.ObjectKey, result.AudioURL)
	assert.Contains(t, store.objects, result.ObjectKey)
}

func TestPodcastGenerateNoDialogue(t *testing.T) {
	g := newTestPodcastGenerator(&stubSpeech{}, &memoryStore{})

	_, err := g.Generate(context.Background(), "nothing parseable here", "course-x")
	assert.Error(t, err)
}

func TestVoiceForSpeaker(t *testing.T) {
	g := newTestPodcastGenerator(&stubSpeech{}, &memoryStore{})

	assert.Equal(t, "Lupe", g.voiceForSpeaker("MARIA"))
	assert.Equal(t, "Lupe", g.voiceForSpeaker("MARÍA"))
	assert.Equal(t, "Miguel", g.voiceForSpeaker("CARLOS"))
	assert.Equal(t, "Miguel", g.voiceForSpeaker("carlos"))
	// Unknown speakers default to the female host voice.
	assert.Equal(t, "Lupe", g.voiceForSpeaker("NARRATOR"))
}

func TestCleanTextForSpeech(t *testing.T) {
	assert.Equal(t, "bold and italic", CleanTextForSpeech("**bold** and *italic*"))
	assert.Equal(t, "inline code", CleanTextForSpeech("`inline code`"))
	assert.Equal(t, "Heading", CleanTextForSpeech("## Heading"))
	assert.Equal(t, "click here", CleanTextForSpeech("click [here](https://example.com)"))
	assert.Equal(t, "one line", CleanTextForSpeech("one\nline"))
	assert.Equal(t, "an A P I call", CleanTextForSpeech("an API call"))
	assert.Equal(t, "use H T T P S always", CleanTextForSpeech("use HTTPS always"))
}
