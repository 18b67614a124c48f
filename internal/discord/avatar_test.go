package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		hash string
		want string
	}{
		{"default by modulo", "80351110224678912", "", "https://cdn.discordapp.com/embed/avatars/2.png"},
		{"default zero", "10", "", "https://cdn.discordapp.com/embed/avatars/0.png"},
		{"default non numeric", "abc", "", "https://cdn.discordapp.com/embed/avatars/0.png"},
		{"static", "42", "8342729096ea3675442027381ff50dfe", "https://cdn.discordapp.com/avatars/42/8342729096ea3675442027381ff50dfe.png"},
		{"animated", "42", "a_8342729096ea3675442027381ff50dfe", "https://cdn.discordapp.com/avatars/42/a_8342729096ea3675442027381ff50dfe.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvatarURL(tt.id, tt.hash))
		})
	}
}
