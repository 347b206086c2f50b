package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-g string     gRPC health bind address, empty disables it
//	-b string     database driver: pgx or sqlite
//	-d string     database DSN
//	-s string     token signing secret
//	-t duration   token validity (e.g., "168h")
//	-m uint       argon2id memory, KiB
//	-i uint       argon2id iterations
//	-p uint       argon2id parallelism
//	-w int        max concurrent password hashes
//	-o string     comma-separated CORS origins
//	-l string     log level
//
// os.Args is first filtered down to these flags with flagx.FilterArgs, so
// -c/-config and -env-file do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-b", "-d", "-s", "-t", "-m", "-i", "-p", "-w", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDriver, "b", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity duration")

	memory := fs.Uint("m", uint(config.HashMemoryKiB), "argon2id memory (KiB)")
	iterations := fs.Uint("i", uint(config.HashIterations), "argon2id iterations")
	parallelism := fs.Uint("p", uint(config.HashParallelism), "argon2id parallelism")

	fs.IntVar(&config.HashConcurrency, "w", config.HashConcurrency, "max concurrent password hashes")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "allowed CORS origins (comma separated)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parallelism > math.MaxUint8 {
		return fmt.Errorf("argon2id parallelism %d is out of range", *parallelism)
	}

	config.HashMemoryKiB = uint32(*memory)
	config.HashIterations = uint32(*iterations)
	config.HashParallelism = uint8(*parallelism)
	config.CORSAllowedOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
