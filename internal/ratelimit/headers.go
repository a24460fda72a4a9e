package ratelimit

import (
	"strconv"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderWindow    = "X-RateLimit-Window"
)

// Headers renders info as the conventional rate-limit response headers.
func Headers(info Info) map[string]string {
	return map[string]string{
		HeaderLimit:     strconv.Itoa(info.Limit),
		HeaderRemaining: strconv.Itoa(info.Remaining),
		HeaderReset:     strconv.FormatInt(info.ResetAt.Unix(), 10),
		HeaderWindow:    strconv.FormatInt(int64(info.Window.Seconds()), 10),
	}
}
