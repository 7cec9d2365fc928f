package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/groupchat/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-h string   HTTP bind address for websocket, health and metrics
//	-d string   database DSN ("memory://" for the in-memory store)
//	-s string   token signing secret
//	-l string   log level (debug, info, warn, error)
//	-o string   OTLP/HTTP trace endpoint, empty disables tracing
//	-n int      default page size
//	-m int      max page size
//	-u, -p, -b, -g, -e   S3 user, password, bucket, region, endpoint
//
// Only these flags are read from os.Args so that -c/-config and flags of
// other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-h", "-d", "-s", "-l", "-o", "-n", "-m", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OTELEndpoint, "o", config.OTELEndpoint, "OTLP trace endpoint")
	fs.IntVar(&config.DefaultPageSize, "n", config.DefaultPageSize, "default page size")
	fs.IntVar(&config.MaxPageSize, "m", config.MaxPageSize, "max page size")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
