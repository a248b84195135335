package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables consulted for flag defaults, so the tool can
// run unattended from a survey rig's .env file.
const (
	envCapture    = "SNOOPR_CAPTURE"
	envCaptureDir = "SNOOPR_CAPTURE_DIR"
	envSignatures = "SNOOPR_SIGNATURES"
	envOutput     = "SNOOPR_OUTPUT"
)

type Config struct {
	DBPath         string
	CaptureDir     string
	SignaturesPath string
	OutputFile     string
	Movement       float64
	Workers        int
	Verbose        bool
}

func NewConfig() *Config {
	return &Config{
		CaptureDir: ".",
		OutputFile: "snoopr.geojson",
		Workers:    1,
	}
}

func NewConfigFromCLI() (*Config, error) {
	_ = godotenv.Load()

	c := NewConfig()

	flag.StringVar(&c.DBPath, "db", getEnv(envCapture, ""), "Path to a Kismet capture file (defaults to the newest in -dir)")
	flag.StringVar(&c.CaptureDir, "dir", getEnv(envCaptureDir, c.CaptureDir), "Directory searched for capture files when -db is not set")
	flag.StringVar(&c.SignaturesPath, "signatures", getEnv(envSignatures, ""), "Path to a YAML drone signatures file (built-in signatures when empty)")
	flag.StringVar(&c.OutputFile, "o", getEnv(envOutput, c.OutputFile), "Path to the output GeoJSON report")
	flag.Float64Var(&c.Movement, "movement", 0, "Snooper movement threshold in meters (0 uses the signatures value)")
	flag.IntVar(&c.Workers, "workers", c.Workers, "Number of extraction workers")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	var err error
	if c.DBPath == "" && c.CaptureDir == "" {
		err = errors.New("a capture file or a capture directory is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.Movement < 0 {
		err = fmt.Errorf("invalid movement threshold: %v", c.Movement)
	} else if c.Workers < 1 {
		err = fmt.Errorf("invalid worker count: %d", c.Workers)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
