package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/lieblocker/internal/model"
)

func TestState_ResetDiscardsClaims(t *testing.T) {
	var s State
	s.Reset("a")
	assert.True(t, s.SetClaims("a", []model.Claim{{ClaimText: "x"}}))
	assert.False(t, s.SetClaims("b", []model.Claim{{ClaimText: "y"}}), "claims for another video are rejected")

	s.Reset("b")
	assert.Empty(t, s.Claims())
	assert.Equal(t, model.VideoID("b"), s.VideoID())
}

func TestState_ClaimsAreCopies(t *testing.T) {
	var s State
	s.Reset("a")
	in := []model.Claim{{ClaimText: "x"}}
	s.SetClaims("a", in)
	in[0].ClaimText = "mutated"
	out := s.Claims()
	assert.Equal(t, "x", out[0].ClaimText)
	out[0].ClaimText = "mutated"
	assert.Equal(t, "x", s.Claims()[0].ClaimText)
}

func TestState_SetPageKeepsPreviousSnapshot(t *testing.T) {
	var s State
	s.SetPage("u1", nil)
	url, page := s.Page()
	assert.Equal(t, "u1", url)
	assert.Nil(t, page)
}
