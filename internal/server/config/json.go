package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/flagx"
)

// duration accepts either a Go duration string ("10s") or integer
// nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// JsonConfig is the on-disk shape of the configuration file. Absent or zero
// fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC string   `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP string   `json:"endpoint_addr_http"`
	DatabaseDSN      string   `json:"database_dsn"`
	SecretKey        string   `json:"secret_key"`
	DefaultPageSize  int      `json:"default_page_size"`
	MaxPageSize      int      `json:"max_page_size"`
	SubscriberBuffer int      `json:"subscriber_buffer"`
	WSInitTimeout    duration `json:"ws_init_timeout"`
	S3RootUser       string   `json:"s3_root_user"`
	S3RootPassword   string   `json:"s3_root_password"`
	S3Bucket         string   `json:"s3_bucket"`
	S3Region         string   `json:"s3_region"`
	S3BaseEndpoint   string   `json:"s3_base_endpoint"`
	OTELEndpoint     string   `json:"otel_endpoint"`
	LogLevel         string   `json:"log_level"`
}

// parseJson overlays the file named by -c/-config onto config. It panics if
// the file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setInt(&config.DefaultPageSize, c.DefaultPageSize)
	setInt(&config.MaxPageSize, c.MaxPageSize)
	setInt(&config.SubscriberBuffer, c.SubscriberBuffer)
	if c.WSInitTimeout != 0 {
		config.WSInitTimeout = time.Duration(c.WSInitTimeout)
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.OTELEndpoint, c.OTELEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
