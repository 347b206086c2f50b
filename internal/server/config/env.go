package config

import (
	"errors"
	"flag"
	"io"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads a .env file (default ".env", or the one named by -env-file)
// into the process environment without overriding variables that are already
// set, then overlays every AUTHKEEPER_* variable onto config.
func parseEnv(config *Config, args []string) error {
	if err := loadEnvFile(envFileFlag(args)); err != nil {
		return err
	}
	return env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix})
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func envFileFlag(args []string) string {
	var path string

	set := flag.NewFlagSet("env-file", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	set.StringVar(&path, "env-file", defaultEnvFile, "Path to .env file")
	_ = set.Parse(flagx.FilterArgs(args, []string{"-env-file"}))

	return path
}
