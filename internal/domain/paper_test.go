package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperStateConstants(t *testing.T) {
	tests := []struct {
		name     string
		state    PaperState
		expected string
	}{
		{"Extracted", PaperStateExtracted, "extracted"},
		{"Summarized", PaperStateSummarized, "summarized"},
		{"Reasoned", PaperStateReasoned, "reasoned"},
		{"CitationsFound", PaperStateCitationsFound, "citations_found"},
		{"DirectionsProposed", PaperStateDirectionsProposed, "directions_proposed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.state))
		})
	}
}

func TestNewPaper(t *testing.T) {
	now := time.Now()
	paper := NewPaper("p1", "attention.pdf", "Attention Is All You Need", "We propose...", "abc123", 15, "full text here", now)

	assert.Equal(t, "p1", paper.ID)
	assert.Equal(t, "attention.pdf", paper.Filename)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, "We propose...", paper.Abstract)
	assert.Equal(t, "abc123", paper.SHA256)
	assert.Equal(t, 15, paper.PageCount)
	assert.Equal(t, len("full text here"), paper.CharCount)
	assert.Equal(t, PaperStateExtracted, paper.State)
	assert.Equal(t, now, paper.CreatedAt)
	assert.Equal(t, now, paper.UpdatedAt)
}

func TestValidatePaper(t *testing.T) {
	now := time.Now()

	valid := func() *Paper {
		return &Paper{
			ID:        "p1",
			Filename:  "paper.pdf",
			SHA256:    "abc123",
			State:     PaperStateExtracted,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Paper)
		wantErr bool
		errMsg  string
	}{
		{"valid paper", func(p *Paper) {}, false, ""},
		{"missing ID", func(p *Paper) { p.ID = "" }, true, "ID"},
		{"missing Filename", func(p *Paper) { p.Filename = "" }, true, "Filename"},
		{"missing SHA256", func(p *Paper) { p.SHA256 = "" }, true, "SHA256"},
		{"invalid State", func(p *Paper) { p.State = PaperState("bogus") }, true, "State"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := ValidatePaper(p)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("nil paper", func(t *testing.T) {
		assert.Error(t, ValidatePaper(nil))
	})
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			ID:      "c1",
			PaperID: "p1",
			Index:   0,
			Text:    "chunk text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Chunk)
		wantErr bool
		errMsg  string
	}{
		{"valid chunk", func(c *Chunk) {}, false, ""},
		{"missing ID", func(c *Chunk) { c.ID = "" }, true, "ID"},
		{"missing PaperID", func(c *Chunk) { c.PaperID = "" }, true, "PaperID"},
		{"negative Index", func(c *Chunk) { c.Index = -1 }, true, "Index"},
		{"missing Text", func(c *Chunk) { c.Text = "" }, true, "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := ValidateChunk(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
