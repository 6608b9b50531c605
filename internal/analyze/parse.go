package analyze

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

var fenceReplacer = strings.NewReplacer("```json\n", "", "```json", "", "```\n", "", "```", "")

// StripCodeFences removes markdown code-fence markers around a JSON reply
func StripCodeFences(content string) string {
	return strings.TrimSpace(fenceReplacer.Replace(content))
}

// ParseResponse reads the model reply into normalized claims.
// A reply that is not JSON fails with a ParseError; a JSON reply without a
// claims array is an empty result.
func ParseResponse(content string) ([]model.Claim, error) {
	content = StripCodeFences(content)
	if !gjson.Valid(content) {
		return nil, errors.Parse("AI response is not valid JSON")
	}

	raw := gjson.Get(content, "claims")
	if !raw.IsArray() {
		return []model.Claim{}, nil
	}

	claims := make([]model.Claim, 0, len(raw.Array()))
	raw.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			claims = append(claims, normalizeClaim(item))
		}
		return true
	})
	return claims, nil
}

func normalizeClaim(item gjson.Result) model.Claim {
	c := model.Claim{
		ClaimText:   firstString(item, "claim", "claim_text"),
		Explanation: item.Get("explanation").String(),
		Confidence:  item.Get("confidence").Float(),
		Severity:    model.ParseSeverity(item.Get("severity").String()),
		Category:    strings.TrimSpace(item.Get("category").String()),
	}

	ts := item.Get("timestamp")
	if ts.Type == gjson.String {
		c.Timestamp = ts.String()
	}

	c.TimestampSeconds = item.Get("timeInSeconds").Float()
	if c.TimestampSeconds == 0 {
		c.TimestampSeconds = item.Get("timestamp_seconds").Float()
	}
	if c.TimestampSeconds == 0 {
		switch ts.Type {
		case gjson.Number:
			c.TimestampSeconds = ts.Float()
		case gjson.String:
			c.TimestampSeconds = ParseTimestamp(ts.String())
		}
	}
	if c.TimestampSeconds < 0 {
		c.TimestampSeconds = 0
	}
	if c.Timestamp == "" {
		c.Timestamp = FormatTimestamp(c.TimestampSeconds)
	}

	c.DurationSeconds = item.Get("duration").Float()
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = item.Get("duration_seconds").Float()
	}
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = model.DefaultClaimDuration
	}

	if c.Category == "" {
		c.Category = model.DefaultCategory
	}
	return c
}

func firstString(item gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
