package cfg

import (
	"net"
	"strconv"
	"time"
)

const (
	ParseErrorModeError   = "error"
	ParseErrorModePartial = "partial"
)

type Cfg struct {
	// Server configuration
	Host string
	Port int

	// Upstream feed
	SourceURL    string
	UserAgent    string
	FetchTimeout time.Duration
	FetchRetries uint64

	// Rules
	DefaultPriority uint32
	RulesFile       string
	WatchRules      bool
	DBPath          string
	NormalizeTitles bool

	// Behaviour
	ParseErrorMode string
	APIAccessKey   string

	// Application metadata
	LogLevel string
	Timezone string
	Version  string
}

// Addr is the host:port pair the HTTP server listens on.
func (c *Cfg) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
