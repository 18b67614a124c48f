package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":        "ID",
		"userId":    "user ID",
		"friendIds": "friend IDs",
		"gameId":    "game ID",
		"query":     "query",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}
