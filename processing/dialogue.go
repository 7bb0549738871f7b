package processing

import (
	"regexp"
	"strings"
)

// DialogueSegment is one speaker turn in a podcast script.
type DialogueSegment struct {
	Speaker string
	Text    string
}

var speakerLineRe = regexp.MustCompile(`^([A-Za-zÀ-ÿ]+):\s*(.*)$`)

// ParseDialogue splits a two-host script into ordered speaker turns. Lines
// matching "SPEAKER: utterance" start a new turn; unlabeled lines append to
// the current speaker's text. Lines before the first speaker label are
// dropped.
func ParseDialogue(script string) []DialogueSegment {
	var segments []DialogueSegment
	var currentSpeaker string
	var currentText []string

	flush := func() {
		if currentSpeaker != "" && len(currentText) > 0 {
			segments = append(segments, DialogueSegment{
				Speaker: currentSpeaker,
				Text:    strings.Join(currentText, " "),
			})
		}
		currentText = nil
	}

	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := speakerLineRe.FindStringSubmatch(line); m != nil {
			flush()
			currentSpeaker = strings.ToUpper(m[1])
			if m[2] != "" {
				currentText = []string{m[2]}
			}
			continue
		}
		if currentSpeaker != "" {
			currentText = append(currentText, line)
		}
	}
	flush()

	return segments
}
