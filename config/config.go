package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	DBUrl     string
	PublicDir string
	Debug     bool

	APIBaseURL string
	APITimeout time.Duration

	ResetWindow    time.Duration
	SearchDebounce time.Duration
	GeoTimeout     time.Duration

	AudioCommand string
	AudioMime    string

	// GPS fix used by the static locator; empty disables it.
	Latitude  string
	Longitude string

	Assembly       string
	SurveyorName   string
	SurveyorMobile string
}

// ParseFlags loads .env files from the working directory, then parses the
// command line. Every flag defaults to its environment variable.
func ParseFlags() (Config, error) {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()
	return Parse(os.Args[1:])
}

func Parse(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("field-survey", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("PORT", 8080), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("DB_URL", "fieldsurvey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.PublicDir, "public-dir", env("PUBLIC_DIR", "public"), "directory of the static UI")
	fs.BoolVar(&cfg.Debug, "debug", envBool("DEBUG", false), "log at DEBUG level")

	fs.StringVar(&cfg.APIBaseURL, "api-base-url", env("API_BASE_URL", ""), "base URL of the survey backend API")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", envDuration("API_TIMEOUT", 10*time.Second), "backend request timeout")

	fs.DurationVar(&cfg.ResetWindow, "reset-window", envDuration("RESET_WINDOW", 3*time.Second), "how long a completed survey stays on screen")
	fs.DurationVar(&cfg.SearchDebounce, "search-debounce", envDuration("SEARCH_DEBOUNCE", 150*time.Millisecond), "voter search debounce")
	fs.DurationVar(&cfg.GeoTimeout, "geo-timeout", envDuration("GEO_TIMEOUT", 10*time.Second), "geolocation timeout")

	fs.StringVar(&cfg.AudioCommand, "audio-command", env("AUDIO_COMMAND", "arecord -q -f cd -t wav -"), "recorder command writing audio to stdout (empty disables audio)")
	fs.StringVar(&cfg.AudioMime, "audio-mime", env("AUDIO_MIME", "audio/wav"), "MIME type of the recorder output")

	fs.StringVar(&cfg.Latitude, "gps-latitude", env("GPS_LATITUDE", ""), "device latitude")
	fs.StringVar(&cfg.Longitude, "gps-longitude", env("GPS_LONGITUDE", ""), "device longitude")

	fs.StringVar(&cfg.Assembly, "assembly", env("ASSEMBLY", "KR Puram"), "assembly constituency")
	fs.StringVar(&cfg.SurveyorName, "surveyor-name", env("SURVEYOR_NAME", ""), "default surveyor name")
	fs.StringVar(&cfg.SurveyorMobile, "surveyor-mobile", env("SURVEYOR_MOBILE", ""), "default surveyor mobile")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	switch {
	case cfg.APIBaseURL == "":
		err = errors.New("missing parameter -api-base-url")
	case (cfg.Latitude == "") != (cfg.Longitude == ""):
		err = errors.New("-gps-latitude and -gps-longitude must be set together")
	}
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// Coordinates returns the configured GPS fix, if any.
func (cfg Config) Coordinates() (lat, lng float64, ok bool, err error) {
	if cfg.Latitude == "" {
		return
	}
	lat, err = strconv.ParseFloat(cfg.Latitude, 64)
	if err != nil {
		err = fmt.Errorf("gps latitude: %w", err)
		return
	}
	lng, err = strconv.ParseFloat(cfg.Longitude, 64)
	if err != nil {
		err = fmt.Errorf("gps longitude: %w", err)
		return
	}
	ok = true
	return
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envUint(key string, def uint) uint {
	v, err := strconv.ParseUint(env(key, ""), 10, 32)
	if err != nil {
		return def
	}
	return uint(v)
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(env(key, ""))
	if err != nil {
		return def
	}
	return v
}
