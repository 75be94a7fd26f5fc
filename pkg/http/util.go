package http

import (
	"time"

	xutil "ChallengeArena/pkg/util"
)

// ParseTimeDefault parses RFC3339 or unix seconds, or returns def if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
