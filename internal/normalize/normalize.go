package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
)

// Normalizer repairs model replies and logs which path was taken.
type Normalizer struct {
	log logrus.FieldLogger
}

// New creates a Normalizer. A nil logger discards output.
func New(log logrus.FieldLogger) *Normalizer {
	return &Normalizer{log: logging.OrDiscard(log)}
}

// Normalize is Normalizer.Normalize without logging.
func Normalize(raw string) *Result {
	return New(nil).Normalize(raw)
}

// Normalize converts raw into a schema-complete Result. A fenced JSON block
// is tried first, then the whole reply as JSON, then the heuristic section
// parser, then the fallback payload.
func (n *Normalizer) Normalize(raw string) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			n.log.WithField("panic", rec).Error("normalizer panicked, using fallback")
			result = Fallback(fmt.Sprintf("failed to process the analysis reply: %v", rec))
		}
	}()

	if strings.TrimSpace(raw) == "" {
		n.log.Warn("empty model reply")
		return Fallback(MsgEmptyReply)
	}
	log := n.log.WithField("chars", len(raw))

	if block, ok := llm.FencedBlock(raw); ok {
		obj, err := decodeObject(block)
		if err == nil {
			log.Debug("parsed fenced JSON reply")
			return Repair(obj)
		}
		log.WithError(err).Warn("fenced block is not a JSON object")
	}

	if bare, ok := llm.BareObject(raw); ok {
		obj, err := decodeObject(bare)
		if err == nil {
			log.Debug("parsed bare JSON reply")
			return Repair(obj)
		}
		log.WithError(err).Warn("reply looks like JSON but does not parse")
	}

	if r, ok := parseHeuristic(raw); ok {
		log.Warn("recovered analysis heuristically from prose reply")
		return r
	}

	log.Warn("nothing usable in model reply, using fallback")
	return Fallback(MsgNothingUsable)
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("JSON is null")
	}
	return obj, nil
}
