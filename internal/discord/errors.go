package discord

import (
	"errors"

	"github.com/darui3018823/discordgo"
)

// IsAPIError reports whether err is a non-2xx response from Discord, as
// opposed to a transport or decoding failure.
func IsAPIError(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr)
}

// StatusCode returns the HTTP status of a Discord API error, or 0.
func StatusCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}
