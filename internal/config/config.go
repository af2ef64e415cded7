package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEnvFile is read when present; the process environment always wins over it.
const DefaultEnvFile = ".env"

type Config struct {
	APIURL       string // dashboard API base, e.g. http://localhost:10086/api
	APIKey       string
	APIKeyHeader string // header carrying APIKey
	ConfigName   string // WireGuard configuration to watch, e.g. wg0

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	ToEmails     []string

	CheckInterval     time.Duration // pause between poll cycles
	ConnectionTimeout time.Duration // per HTTP attempt
	MaxRetries        int           // attempts per poll
	RetryDelay        time.Duration // pause between attempts
	HandshakeTimeout  time.Duration // max handshake age for "connected"

	MonitoredPeers  []string
	MonitorAllPeers bool

	LogDir   string
	LogLevel string

	StatusAddr    string // empty disables the status API
	StatusAPIKeys []string
	StatusRPM     int
	StatusBurst   int

	// StatusTrustedProxies are the proxies allowed to set X-Forwarded-For.
	StatusTrustedProxies []string
}

// key describes one setting: its canonical env name plus legacy aliases.
type key struct {
	names []string
	desc  string
}

var (
	keyAPIURL       = key{[]string{"API_URL", "WG_API_URL"}, "dashboard API URL"}
	keyAPIKey       = key{[]string{"API_KEY", "WG_API_KEY"}, "dashboard API key"}
	keyAPIKeyHeader = key{[]string{"API_KEY_HEADER", "WG_API_KEY_HEADER"}, "API key header name"}
	keyConfigName   = key{[]string{"CONFIG_NAME", "WG_CONFIG_NAME"}, "WireGuard configuration name"}
	keySMTPServer   = key{[]string{"SMTP_SERVER"}, "SMTP server"}
	keySMTPPort     = key{[]string{"SMTP_PORT"}, "SMTP port"}
	keySMTPUsername = key{[]string{"SMTP_USERNAME"}, "SMTP username"}
	keySMTPPassword = key{[]string{"SMTP_PASSWORD"}, "SMTP password"}
	keyFromEmail    = key{[]string{"FROM_EMAIL"}, "From email address"}
	keyToEmails     = key{[]string{"TO_EMAILS"}, "alert recipients"}
	keyInterval     = key{[]string{"CHECK_INTERVAL"}, "check interval"}
	keyConnTimeout  = key{[]string{"CONNECTION_TIMEOUT"}, "connection timeout"}
	keyMaxRetries   = key{[]string{"MAX_RETRIES"}, "max retries"}
	keyRetryDelay   = key{[]string{"RETRY_DELAY"}, "retry delay"}
	keyHSTimeout    = key{[]string{"HANDSHAKE_TIMEOUT"}, "handshake timeout"}
	keyPeers        = key{[]string{"MONITORED_PEERS"}, "monitored peers"}
	keyAllPeers     = key{[]string{"MONITOR_ALL_PEERS"}, "monitor all peers"}
	keyLogDir       = key{[]string{"LOG_DIR"}, "log directory"}
	keyLogLevel     = key{[]string{"LOG_LEVEL"}, "log level"}
	keyStatusAddr   = key{[]string{"STATUS_ADDR"}, "status API listen address"}
	keyStatusKeys   = key{[]string{"STATUS_API_KEYS"}, "status API keys"}
	keyStatusRPM    = key{[]string{"STATUS_RPM"}, "status API requests per minute"}
	keyStatusBurst  = key{[]string{"STATUS_BURST"}, "status API burst"}
	keyStatusProxy  = key{[]string{"STATUS_TRUSTED_PROXIES"}, "proxies trusted for X-Forwarded-For"}
)

// Load reads configuration from envFile (optional, dotenv syntax) and the
// process environment. It only fails on an unreadable file or unparsable
// values; missing credentials are reported by Validate.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}

	r := reader{v: v}
	cfg := Config{
		APIURL:       strings.TrimRight(r.str(keyAPIURL, "http://localhost:10086/api"), "/"),
		APIKey:       r.str(keyAPIKey, ""),
		APIKeyHeader: r.str(keyAPIKeyHeader, "wg-dashboard-apikey"),
		ConfigName:   r.str(keyConfigName, "wg0"),

		SMTPServer:   r.str(keySMTPServer, "smtp.gmail.com"),
		SMTPPort:     r.integer(keySMTPPort, 587),
		SMTPUsername: r.str(keySMTPUsername, ""),
		SMTPPassword: r.str(keySMTPPassword, ""),
		FromEmail:    r.str(keyFromEmail, ""),
		ToEmails:     splitList(r.str(keyToEmails, "admin@example.com")),

		CheckInterval:     r.seconds(keyInterval, 300*time.Second),
		ConnectionTimeout: r.seconds(keyConnTimeout, 10*time.Second),
		MaxRetries:        r.integer(keyMaxRetries, 3),
		RetryDelay:        r.seconds(keyRetryDelay, 30*time.Second),
		HandshakeTimeout:  r.seconds(keyHSTimeout, 300*time.Second),

		MonitoredPeers:  splitList(r.str(keyPeers, "")),
		MonitorAllPeers: r.boolean(keyAllPeers, false),

		LogDir:   r.str(keyLogDir, "logs"),
		LogLevel: r.str(keyLogLevel, "info"),

		StatusAddr:    r.str(keyStatusAddr, ""),
		StatusAPIKeys: splitList(r.str(keyStatusKeys, "")),
		StatusRPM:     r.integer(keyStatusRPM, 120),
		StatusBurst:   r.integer(keyStatusBurst, 30),

		StatusTrustedProxies: splitList(r.str(keyStatusProxy, "")),
	}

	if len(r.invalid) > 0 {
		return cfg, &InvalidError{Fields: r.invalid}
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var missing []string
	req := func(val string, k key) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", k.names[0], k.desc))
		}
	}
	req(c.APIKey, keyAPIKey)
	req(c.SMTPUsername, keySMTPUsername)
	req(c.SMTPPassword, keySMTPPassword)
	req(c.FromEmail, keyFromEmail)
	if len(c.ToEmails) == 0 {
		missing = append(missing, fmt.Sprintf("%s (%s)", keyToEmails.names[0], keyToEmails.desc))
	}
	if len(missing) > 0 {
		return &MissingError{Settings: missing}
	}

	var invalid []string
	if c.CheckInterval <= 0 {
		invalid = append(invalid, keyInterval.names[0]+" must be > 0")
	}
	if c.ConnectionTimeout <= 0 {
		invalid = append(invalid, keyConnTimeout.names[0]+" must be > 0")
	}
	if c.MaxRetries < 1 {
		invalid = append(invalid, keyMaxRetries.names[0]+" must be >= 1")
	}
	if c.RetryDelay < 0 {
		invalid = append(invalid, keyRetryDelay.names[0]+" must be >= 0")
	}
	if c.HandshakeTimeout <= 0 {
		invalid = append(invalid, keyHSTimeout.names[0]+" must be > 0")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		invalid = append(invalid, keySMTPPort.names[0]+" must be a TCP port")
	}
	if len(invalid) > 0 {
		return &InvalidError{Fields: invalid}
	}
	return nil
}

type reader struct {
	v       *viper.Viper
	invalid []string
}

// raw returns the first non-empty value among k's names.
func (r *reader) raw(k key) (string, string) {
	for _, n := range k.names {
		if s := strings.TrimSpace(r.v.GetString(strings.ToLower(n))); s != "" {
			return n, s
		}
	}
	return "", ""
}

func (r *reader) str(k key, def string) string {
	if _, s := r.raw(k); s != "" {
		return s
	}
	return def
}

func (r *reader) integer(k key, def int) int {
	name, s := r.raw(k)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not an integer", name, s))
		return def
	}
	return n
}

func (r *reader) boolean(k key, def bool) bool {
	name, s := r.raw(k)
	if s == "" {
		return def
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not a boolean", name, s))
	return def
}

// seconds accepts a bare number of seconds ("300") or a Go duration ("5m").
func (r *reader) seconds(k key, def time.Duration) time.Duration {
	name, s := r.raw(k)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not a duration", name, s))
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
