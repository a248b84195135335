package app

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

type MapFormat string

type Config struct {
	DBPath         string
	SignaturesPath string
	OutputFile     string
	Format         MapFormat
	From           *time.Time
	To             *time.Time
	Movement       float64
	Width          int
	Verbose        bool
	NoAnnotations  bool
}

var validMapFormats = map[MapFormat]struct{}{
	FormatHTML: {},
	FormatPNG:  {},
	FormatJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: FormatHTML,
		Width:  1280,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var mapFormat, from, to string
	flag.StringVar(&c.DBPath, "db", "", "Path to a Kismet capture file")
	flag.StringVar(&c.SignaturesPath, "signatures", "", "Path to a YAML drone signatures file (built-in signatures when empty)")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&mapFormat, "f", string(FormatHTML), "Output map format. [html, png, jpeg]")
	flag.StringVar(&from, "from", "", "Only map devices seen at or after this time (RFC3339 or Unix seconds)")
	flag.StringVar(&to, "to", "", "Only map devices seen at or before this time (RFC3339 or Unix seconds)")
	flag.Float64Var(&c.Movement, "movement", 0, "Snooper movement threshold in meters (0 uses the signatures value)")
	flag.IntVar(&c.Width, "width", c.Width, "Rendered image width in pixels")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable the title, legend and summary annotations")
	flag.Parse()

	mapFormat = strings.ToLower(mapFormat)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validMapFormats[MapFormat(mapFormat)]; !ok {
		err = fmt.Errorf("invalid map format: %s", mapFormat)
	} else if c.Movement < 0 {
		err = fmt.Errorf("invalid movement threshold: %v", c.Movement)
	} else if c.Width < 320 {
		err = fmt.Errorf("image width %d is too small", c.Width)
	}

	if err == nil && from != "" {
		c.From, err = parseTimeFlag(from)
	}
	if err == nil && to != "" {
		c.To, err = parseTimeFlag(to)
	}
	if err == nil && c.From != nil && c.To != nil && c.From.After(*c.To) {
		err = errors.New("-from is after -to")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = MapFormat(mapFormat)
	if ext := fmt.Sprintf(".%s", c.Format); !strings.HasSuffix(c.OutputFile, ext) {
		c.OutputFile += ext
	}
	return c, nil
}

func parseTimeFlag(s string) (*time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		t := ts.UTC()
		return &t, nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid time '%s': use RFC3339 or Unix seconds", s)
	}
	t := time.Unix(secs, 0).UTC()
	return &t, nil
}
