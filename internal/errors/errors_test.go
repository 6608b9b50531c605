package errors

import (
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Configf("Invalid %s API key format", "openai")
	if !Is(err, ErrConfig) {
		t.Error("expected config error to match ErrConfig")
	}
	if Is(err, ErrAPI) {
		t.Error("config error must not match ErrAPI")
	}
}

func TestError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("analyze: %w", API("gemini", 403, "API key not valid"))
	if !Is(err, ErrAPI) {
		t.Fatal("expected wrapped API error to match ErrAPI")
	}
	if CodeOf(err) != CodeAPI {
		t.Errorf("CodeOf = %q, want %q", CodeOf(err), CodeAPI)
	}

	var e *Error
	if !As(err, &e) {
		t.Fatal("expected *Error in chain")
	}
	details, ok := e.Details.(APIDetails)
	if !ok {
		t.Fatalf("expected APIDetails, got %T", e.Details)
	}
	if details.Provider != "gemini" || details.StatusCode != 403 {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestAPI_Message(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		want     string
	}{
		{"with upstream", "Rate limit exceeded", "openai API error: 429 - Rate limit exceeded"},
		{"without upstream", "", "openai API error: 429 - Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := API("openai", 429, tt.upstream).Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractionFailed_WrapsCauses(t *testing.T) {
	cause := New("transcript button not found")
	err := ExtractionFailed(cause)
	if !Is(err, ErrExtractionFailed) {
		t.Error("expected ErrExtractionFailed")
	}
	if !Is(err, cause) {
		t.Error("expected strategy cause to stay reachable")
	}
}
