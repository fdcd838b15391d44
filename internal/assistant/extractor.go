package assistant

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/gateway"
)

// Extractor classifies a free-text user message into an Intent via the
// gateway. Extraction never fails: any upstream problem resolves to a chat
// intent, because a mis-route to chat is a no-op while a false destructive
// action is not.
type Extractor struct {
	gw  gateway.TextCompleter
	log zerolog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(gw gateway.TextCompleter, log zerolog.Logger) *Extractor {
	return &Extractor{gw: gw, log: log}
}

// Extract classifies message into an Intent. today anchors relative-date
// resolution inside the prompt.
func (e *Extractor) Extract(ctx context.Context, message string, today time.Time) Intent {
	prompt := buildIntentPrompt(message, today.Format("2006-01-02"))

	raw, err := e.gw.Complete(ctx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Msg("Intent extraction degraded to chat")
		return ChatIntent()
	}

	obj, ok := decodeModelObject(raw)
	if !ok {
		e.log.Warn().Str("raw", truncate(raw, 200)).Msg("Unparseable intent response, degraded to chat")
		return ChatIntent()
	}

	return intentFromObject(obj)
}

// intentFromObject builds an Intent from the permissive decoded object.
// Field shapes are coerced loosely; validation belongs to the Normalizer.
func intentFromObject(obj map[string]interface{}) Intent {
	action := Action(strings.ToLower(strings.TrimSpace(looseString(obj["action"]))))
	if !knownActions[action] {
		return ChatIntent()
	}

	intent := Intent{Action: action}
	intent.Amount, intent.HasAmount = looseFloat(obj["amount"])
	intent.Description = strings.TrimSpace(looseString(obj["description"]))
	intent.Type = looseString(obj["type"])
	intent.Date = strings.TrimSpace(looseString(obj["date"]))
	intent.Lender = strings.TrimSpace(looseString(obj["lender"]))
	intent.DueDate = strings.TrimSpace(looseString(obj["due_date"]))
	intent.Field = strings.ToLower(strings.TrimSpace(looseString(obj["field"])))
	intent.Value = strings.TrimSpace(looseString(obj["value"]))
	intent.ValueNumber, _ = looseFloat(obj["value"])
	intent.Category = strings.TrimSpace(looseString(obj["category"]))

	return intent
}

// decodeModelObject strips markdown fencing, locates the first {...}
// substring and decodes it into a generic map.
func decodeModelObject(raw string) (map[string]interface{}, bool) {
	clean := stripFences(raw)
	clean = firstJSONObject(clean)
	if clean == "" {
		return nil, false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stripFences removes ```json ... ``` or ``` ... ``` wrappers the model may
// add despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

// firstJSONObject keeps only the first '{' through the last '}' so trailing
// prose around the object is discarded. Returns "" when no braces exist.
func firstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

// looseString renders any JSON value as a string: the model sometimes emits
// numbers where text was asked for and vice versa.
func looseString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// looseFloat coerces numbers and numeric strings; everything else reports
// absent.
func looseFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
