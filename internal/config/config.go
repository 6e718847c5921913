// Package config loads definekit settings from a TOML file.
//
// The file is optional. [Load] looks for definekit.toml in the working
// directory unless a path is given; when no file exists every setting keeps
// its default from [Default]. Keys absent from the file also keep their
// defaults, so a file only needs the settings it changes.
//
// # Example
//
//	[define]
//	language = "en"
//	version = "2.1.0"
//	merge_supplemental = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[archive]
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
//	[s3]
//	region = "eu-central-1"
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/markup"
	"github.com/matzehuels/definekit/pkg/pipeline"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "definekit.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	Define  DefineConfig  `toml:"define"`
	Cache   CacheConfig   `toml:"cache"`
	Archive ArchiveConfig `toml:"archive"`
	Server  ServerConfig  `toml:"server"`
	S3      S3Config      `toml:"s3"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// DefineConfig holds defaults for the written Define-XML.
type DefineConfig struct {
	Language          string `toml:"language"`
	Version           string `toml:"version"` // empty keeps the version the input declares
	MergeSupplemental bool   `toml:"merge_supplemental"`
	Stylesheet        string `toml:"stylesheet"`
	OmitStylesheet    bool   `toml:"omit_stylesheet"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"` // file backend; empty means the user cache dir
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	Scope         string        `toml:"scope"` // namespaces keys so deployments can share a backend
	TTL           time.Duration `toml:"ttl"`
}

// ArchiveConfig configures the MongoDB archive. An empty URI disables it.
type ArchiveConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// S3Config configures s3:// inputs. An empty region disables them.
type S3Config struct {
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend: BackendFile,
			Prefix:  cache.DefaultRedisPrefix,
			TTL:     cache.TTLArtifact,
		},
		Archive: ArchiveConfig{
			Database:   "definekit",
			Collection: "defines",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 64 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
	}
}

// Load reads the configuration at path. An empty path means FileName in the
// working directory, and a missing file there yields the defaults. A path
// given explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data over cfg and validates the result. Unknown keys
// are rejected so that typos do not go unnoticed.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Define.Version != "" && c.Define.Version != markup.DefineVersion20 && c.Define.Version != markup.DefineVersion21 {
		return errors.New(errors.ErrCodeInvalidInput, "unsupported define version %q", c.Define.Version)
	}
	if uri := c.Archive.MongoURI; uri != "" {
		if err := errors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "archive.mongo_uri")
		}
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body_bytes must not be negative")
	}
	return nil
}

// PipelineOptions returns pipeline options carrying the configured
// defaults. Callers fill in the input and the output format.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		MergeSupplemental: c.Define.MergeSupplemental,
		DefineVersion:     c.Define.Version,
		Stylesheet:        c.Define.Stylesheet,
		OmitStylesheet:    c.Define.OmitStylesheet,
		Language:          c.Define.Language,
	}
}
