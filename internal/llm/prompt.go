package llm

import (
	"fmt"
	"math"
	"strconv"
)

// BuildSystemPrompt returns the fact-checker instructions for a run
func BuildSystemPrompt(analysisMinutes int, minConfidence float64) string {
	percent := int(math.Round(minConfidence * 100))
	threshold := strconv.FormatFloat(minConfidence, 'f', -1, 64)

	return fmt.Sprintf(`You are a fact-checking expert. Analyze this %d-minute YouTube transcript and identify false or misleading claims.

DETECTION CRITERIA:
- Only flag factual claims, not opinions or predictions
- Require very high confidence (%d%%+) before flagging
- Focus on clear, verifiable false claims with strong evidence
- Be specific about what makes each claim problematic
- Consider context and intent
- Err on the side of caution to avoid false positives

RESPONSE FORMAT:
Respond with a JSON object containing an array of claims. Each claim should have:
- "timestamp": The exact timestamp from the transcript (e.g., "2:34")
- "timeInSeconds": Timestamp converted to seconds (e.g., 154)
- "duration": Estimated duration of the lie in seconds (5-30, based on actual complexity)
- "claim": The specific false or misleading statement (exact quote from transcript)
- "explanation": Why this claim is problematic (1-2 sentences)
- "confidence": Your confidence level (0.0-1.0, minimum %s)
- "severity": "low", "medium", "high", or "critical"

Example response:
{
  "claims": [
    {
      "timestamp": "1:23",
      "timeInSeconds": 83,
      "duration": 12,
      "claim": "Vaccines contain microchips",
      "explanation": "This is a debunked conspiracy theory with no scientific evidence.",
      "confidence": 0.95,
      "severity": "critical"
    }
  ]
}

IMPORTANT: Only return the JSON object. Do not include any other text.`, analysisMinutes, percent, threshold)
}

// BuildUserPrompt wraps the transcript excerpt
func BuildUserPrompt(analysisMinutes int, excerpt string) string {
	return fmt.Sprintf("Analyze this %d-minute YouTube transcript for false or misleading claims:\n\n%s", analysisMinutes, excerpt)
}

// BuildMessages returns the system and user turns for one analysis
func BuildMessages(analysisMinutes int, minConfidence float64, excerpt string) []Message {
	return []Message{
		{Role: RoleSystem, Content: BuildSystemPrompt(analysisMinutes, minConfidence)},
		{Role: RoleUser, Content: BuildUserPrompt(analysisMinutes, excerpt)},
	}
}
