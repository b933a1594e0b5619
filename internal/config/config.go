// Package config loads the epf properties file and freezes it into the
// configuration record both loops read. The record is immutable after Load
// and safe to share between goroutines without synchronization.
package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"epf/internal/errs"
)

// Property names recognized in the properties file.
const (
	PropHost           = "entropy.host"
	PropPort           = "entropy.port"
	PropResource       = "entropy.resource"
	PropStreamEncrypt  = "entropy.resource.bytestream.encrypt"
	PropPubKeyFile     = "entropy.resource.bytestream.encrypt.pubkey.rsa.file"
	PropRequestBytes   = "entropy.request.byte.count"
	PropSSLEnabled     = "entropy.host.ssl.enabled"
	PropAuthToken      = "entropy.auth.token"
	PropDownloadPeriod = "entropy.download.thread.period.usecs"
	PropFeederPeriod   = "entropy.feeder.thread.period.usecs"
	PropMaxQueueBytes  = "entropy.feeder.max.deq.size.bytes"
)

// MaxRequestBytes caps the per-exchange request size; larger configured
// values are silently clamped.
const MaxRequestBytes = 10000

// Config is the frozen configuration record consumed by the pipeline.
type Config struct {
	Host            string
	Port            int
	Resource        string
	RequestBytes    int
	SSLEnabled      bool
	AuthToken       string
	StreamEncrypted bool
	PubKeyPath      string
	DownloadPeriod  time.Duration
	FeederPeriod    time.Duration
	MaxQueueBytes   int
}

// Properties is the raw key/value view of a properties file before
// validation.
type Properties map[string]string

// leading-whitespace set for comment detection; trailing trim sets match
// the historical parser exactly, including the vertical-tab and form-feed
// characters.
const (
	leadWS  = " \f\t\v"
	trimSet = " \f\n\r\t\v"
)

// ParseProperties reads one property per line from r. Lines whose first
// non-whitespace character is '#' or ';' are comments. A line without '='
// or with an empty key or value is skipped. The key keeps any embedded
// whitespace; only leading and trailing whitespace is stripped from it.
func ParseProperties(r io.Reader) (Properties, error) {
	props := make(Properties)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimLeft(sc.Text(), leadWS)
		if s == "" || s[0] == '#' || s[0] == ';' {
			continue
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimRight(s[:eq], trimSet)
		if key == "" {
			continue
		}
		value := strings.Trim(s[eq+1:], trimSet)
		if value == "" {
			continue
		}
		props[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "read properties file", err)
	}
	return props, nil
}

// LoadProperties parses the file at path.
func LoadProperties(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "open properties file", err)
	}
	defer f.Close()
	return ParseProperties(f)
}

// Load parses and validates the properties file at path into a frozen
// Config. Every recognized property except the auth token and the public
// key path is mandatory; the key path becomes mandatory when stream
// encryption is engaged. Validation failures are KindConfig and fatal.
func Load(path string) (*Config, error) {
	props, err := LoadProperties(path)
	if err != nil {
		return nil, err
	}
	return fromProperties(props)
}

func fromProperties(props Properties) (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Host, err = props.requireString(PropHost); err != nil {
		return nil, err
	}
	if cfg.Port, err = props.requireInt(PropPort); err != nil {
		return nil, err
	}
	if cfg.Resource, err = props.requireString(PropResource); err != nil {
		return nil, err
	}
	if cfg.StreamEncrypted, err = props.requireBool(PropStreamEncrypt); err != nil {
		return nil, err
	}
	if cfg.StreamEncrypted {
		if cfg.PubKeyPath, err = props.requireString(PropPubKeyFile); err != nil {
			return nil, err
		}
	}
	if cfg.RequestBytes, err = props.requireInt(PropRequestBytes); err != nil {
		return nil, err
	}
	if cfg.RequestBytes > MaxRequestBytes {
		cfg.RequestBytes = MaxRequestBytes
	}
	if cfg.SSLEnabled, err = props.requireBool(PropSSLEnabled); err != nil {
		return nil, err
	}
	cfg.AuthToken = props[PropAuthToken]

	downloadUsecs, err := props.requireInt(PropDownloadPeriod)
	if err != nil {
		return nil, err
	}
	cfg.DownloadPeriod = time.Duration(downloadUsecs) * time.Microsecond

	feederUsecs, err := props.requireInt(PropFeederPeriod)
	if err != nil {
		return nil, err
	}
	cfg.FeederPeriod = time.Duration(feederUsecs) * time.Microsecond

	if cfg.MaxQueueBytes, err = props.requireInt(PropMaxQueueBytes); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p Properties) requireString(name string) (string, error) {
	v := p[name]
	if v == "" {
		return "", errs.New(errs.KindConfig, "could not find property "+name)
	}
	return v, nil
}

func (p Properties) requireInt(name string) (int, error) {
	v, err := p.requireString(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.New(errs.KindConfig, name+" is not an integer number")
	}
	return n, nil
}

func (p Properties) requireBool(name string) (bool, error) {
	v, err := p.requireString(name)
	if err != nil {
		return false, err
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errs.New(errs.KindConfig, name+" is not a boolean")
}
