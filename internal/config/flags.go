package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/funnel/internal/flagx"
)

var configFlags = []string{"-d", "-s", "-t", "-n", "-l", "-f", "-k", "-q", "-b", "-g", "-e", "-u", "-p", "-x"}

// ArgFlags lists every flag Load consumes, the config file flags included.
func ArgFlags() []string {
	return append([]string{"-c", "-config", "--config"}, configFlags...)
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   database DSN
//	-s string   token HMAC secret
//	-t int      access token validity, minutes
//	-n int      anchor token validity, minutes
//	-l string   log level
//	-f string   log format (json, text, auto)
//	-k string   comma-separated Kafka brokers
//	-q string   Kafka topic
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-u string   S3 access key
//	-p string   S3 secret key
//	-x string   S3 key prefix
//
// args are filtered with flagx.FilterArgs first so that flags belonging to
// the CLI commands never reach this flag set.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, configFlags)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token secret key")
	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	anchorTTL := fs.Int("n", int(config.AnchorTTL.Minutes()), "anchor token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "Kafka brokers")
	fs.StringVar(&config.KafkaTopic, "q", config.KafkaTopic, "Kafka topic")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Prefix, "x", config.S3Prefix, "S3 key prefix")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
	config.AnchorTTL = time.Duration(*anchorTTL) * time.Minute
	config.KafkaBrokers = splitList(*brokers)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
