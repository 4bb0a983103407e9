// Package config loads the two-stage configuration described in spec.md
// §4.10 and §6: a .env file overlaying process environment, then a JSON
// document supplying the remainder. The result is an immutable snapshot.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Camera holds the fields needed to address and authenticate to the edge
// camera, both over RTSP and over its HTTP configuration endpoint.
type Camera struct {
	Username string `json:"-"`
	Password string `json:"-"`
	Host     string `json:"-"`
	RTSPPort string `json:"-"`
	RTSPPath string `json:"-"`
	TrackID  string `json:"-"`
}

// RTSPURL builds the metadata elementary-stream source URL.
func (c Camera) RTSPURL() string {
	return fmt.Sprintf("rtsp://%s:%s@%s:%s%s", c.Username, c.Password, c.Host, c.RTSPPort, c.RTSPPath)
}

// Store holds the persistent-store location.
type Store struct {
	DBFile string `json:"db_file"`
}

// Detection holds the risk-heuristic thresholds.
type Detection struct {
	DistThreshold        float64 `json:"dist_threshold"`
	ParallelismThreshold float64 `json:"parallelism_threshold"`
}

// Cache holds the retained-frame and trajectory-history bounds the risk
// heuristic consumes.
type Cache struct {
	FrameCacheSize int `json:"frame_cache_size"`
	HistorySize    int `json:"history_size"`
}

// Scale holds the pixel-scaling factors read from the JSON document. They
// are carried into tlsserver.Deps but not applied anywhere: request 2
// scales camera coordinates by a fixed ×4 instead.
type Scale struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	BaseX float64 `json:"base_x"`
	BaseY float64 `json:"base_y"`
}

// Board holds the serial display-board addressing and retry parameters.
type Board struct {
	Ports      map[string]string `json:"ports"` // board id -> device path
	RetryCount int               `json:"retry_count"`
	TimeoutMs  int               `json:"timeout_ms"`
}

// Bbox holds the delayed-delivery timing parameters.
type Bbox struct {
	BufferDelayMs  int `json:"buffer_delay_ms"`
	SendIntervalMs int `json:"send_interval_ms"`
}

// TLS holds the listener address and certificate/key file paths.
type TLS struct {
	ListenAddr string `json:"listen_addr"`
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
}

// Diagnostics holds the loopback-only HTTP diagnostics surface settings
// (supplemented, not part of the original distilled spec's wire protocol).
type Diagnostics struct {
	ListenAddr string `json:"listen_addr"`
}

// Redis holds the login-lockout backing store address (supplemented).
type Redis struct {
	Addr string `json:"addr"`
}

// NATS holds the best-effort event fan-out connection (supplemented).
type NATS struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// Config is the immutable, process-wide configuration snapshot. It is
// built once by Load and never mutated afterward.
type Config struct {
	Camera      Camera
	Store       Store       `json:"store"`
	Detection   Detection   `json:"detection"`
	Cache       Cache       `json:"cache"`
	Scale       Scale       `json:"scale"`
	Board       Board       `json:"board"`
	Bbox        Bbox        `json:"bbox"`
	TLS         TLS         `json:"tls"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Redis       Redis       `json:"redis"`
	NATS        NATS        `json:"nats"`
}

// Load performs the two-stage sequence: read dotenvPath into the process
// environment (if present), then unmarshal configJSONPath over the
// defaults, then overlay the required .env keys onto the Camera/Store
// sections per §6.
func Load(dotenvPath, configJSONPath string) (Config, error) {
	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", dotenvPath, err)
		}
	}

	raw, err := os.ReadFile(configJSONPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", configJSONPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", configJSONPath, err)
	}

	cfg.Camera = Camera{
		Username: os.Getenv("USERNAME"),
		Password: os.Getenv("PASSWORD"),
		Host:     os.Getenv("HOST"),
		RTSPPort: os.Getenv("RTSP_PORT"),
		RTSPPath: os.Getenv("RTSP_PATH"),
		TrackID:  os.Getenv("TRACKID"),
	}
	if dbFile := os.Getenv("DB_FILE"); dbFile != "" {
		cfg.Store.DBFile = dbFile
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Camera.Host == "":
		return fmt.Errorf("config: HOST is required")
	case c.Store.DBFile == "":
		return fmt.Errorf("config: store.db_file is required")
	case c.TLS.CertFile == "" || c.TLS.KeyFile == "":
		return fmt.Errorf("config: tls.cert_file and tls.key_file are required")
	}
	return nil
}
