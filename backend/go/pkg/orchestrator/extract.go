package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// SessionAliases are the keys a session identifier has been seen under, in priority order.
var SessionAliases = []string{"session_id", "sessionId", "session_token", "sessionToken", "token", "id"}

// Extractor pulls a session identifier out of a response body.
type Extractor interface {
	Name() string
	Extract(body []byte) (string, bool)
}

// PathExtractor reads a gjson path from a JSON body.
// Only non-empty strings and numbers are accepted.
type PathExtractor struct {
	Path string
}

func (e PathExtractor) Name() string { return "json:" + e.Path }

func (e PathExtractor) Extract(body []byte) (string, bool) {
	res := gjson.GetBytes(body, e.Path)
	switch res.Type {
	case gjson.String, gjson.Number:
		if v := strings.TrimSpace(res.String()); v != "" {
			return v, true
		}
	}
	return "", false
}

// PatternExtractor returns the first capture group of Pattern matched against the raw body.
type PatternExtractor struct {
	Label   string
	Pattern *regexp.Regexp
}

func (e PatternExtractor) Name() string { return "regex:" + e.Label }

func (e PatternExtractor) Extract(body []byte) (string, bool) {
	m := e.Pattern.FindSubmatch(body)
	if len(m) < 2 || len(m[1]) == 0 {
		return "", false
	}
	return string(m[1]), true
}

// DefaultJSONExtractors checks every alias at the top level, then under session_info.
func DefaultJSONExtractors() []Extractor {
	out := make([]Extractor, 0, 2*len(SessionAliases))
	for _, alias := range SessionAliases {
		out = append(out, PathExtractor{Path: alias})
	}
	for _, alias := range SessionAliases {
		out = append(out, PathExtractor{Path: "session_info." + alias})
	}
	return out
}

// DefaultTextExtractors are applied to bodies that are not valid JSON.
func DefaultTextExtractors() []Extractor {
	return []Extractor{
		PatternExtractor{Label: "quoted-session", Pattern: regexp.MustCompile(`(?i)["']session_(?:id|token)["']\s*:\s*["']([^"']+)["']`)},
		PatternExtractor{Label: "quoted-token", Pattern: regexp.MustCompile(`(?i)["']token["']\s*:\s*["']([^"']+)["']`)},
		PatternExtractor{Label: "quoted-id", Pattern: regexp.MustCompile(`(?i)["']id["']\s*:\s*["']([^"']+)["']`)},
		PatternExtractor{Label: "bare-session", Pattern: regexp.MustCompile(`(?i)session[_-]?(?:id|token)['":\s]*([a-zA-Z0-9_\-.]+)`)},
	}
}

// Normalizer turns a successful response body into the session-related parts of a Result.
type Normalizer struct {
	JSON  []Extractor
	Text  []Extractor
	NewID func() string
}

// DefaultNormalizer uses the default extractors and random UUIDs for generated fallbacks.
func DefaultNormalizer() *Normalizer {
	return &Normalizer{
		JSON:  DefaultJSONExtractors(),
		Text:  DefaultTextExtractors(),
		NewID: func() string { return uuid.NewString() },
	}
}

// normalized is the body-derived part of a successful Result.
type normalized struct {
	fields    map[string]any
	sessionID string
	extractor string
	generated bool
	warning   string
	parseErr  error
}

func (n *Normalizer) normalize(body []byte, expectSession bool) normalized {
	var out normalized

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		out.parseErr = err
		if id, name, ok := firstMatch(n.Text, body); ok {
			out.sessionID, out.extractor = id, name
			return out
		}
		if expectSession {
			out.sessionID = n.NewID()
			out.generated = true
			out.warning = "could not parse server response, using generated session ID"
		}
		return out
	}

	if obj, ok := decoded.(map[string]any); ok {
		out.fields = obj
		if id, name, ok := firstMatch(n.JSON, body); ok {
			out.sessionID, out.extractor = id, name
			return out
		}
	}
	if expectSession {
		out.sessionID = n.NewID()
		out.generated = true
		out.warning = "could not find session ID in response, using generated ID"
	}
	return out
}

func firstMatch(extractors []Extractor, body []byte) (string, string, bool) {
	for _, e := range extractors {
		if id, ok := e.Extract(body); ok {
			return id, e.Name(), true
		}
	}
	return "", "", false
}
