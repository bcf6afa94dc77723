package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags overlays -a (API base URL) and -i (online check interval in
// seconds) from os.Args. A bare host:port gets an http:// prefix. Parse
// errors panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	addr := fs.String("a", cfg.ServerEndpointAddr, "base URL of the HTTP API")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval/time.Second), "online check interval in seconds, 0 disables it")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	base, err := normalizeBaseURL(*addr)
	if err != nil {
		panic(err)
	}
	if *interval < 0 {
		panic(fmt.Errorf("online check interval must not be negative: %d", *interval))
	}

	cfg.ServerEndpointAddr = base
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
}

func normalizeBaseURL(addr string) (string, error) {
	if addr == "" {
		return "", nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server address %q: scheme must be http or https", addr)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server address %q: missing host", addr)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
