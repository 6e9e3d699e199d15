package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/kaiakz/rcopy-os/rcopy"
)

type Config struct {
	Port        int
	ChunkSize   int
	Fingerprint string

	/* client */
	MaxTransfers int
	Exclude      []string

	/* boltdb */
	CachePath string

	/* minio */
	Minio MinioConfig
}

type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	Secure          bool
}

func newConfig() (*Config, error) {
	cfg := &Config{
		Port:         viper.GetInt("port"),
		ChunkSize:    viper.GetInt("chunk_size"),
		Fingerprint:  viper.GetString("fingerprint"),
		MaxTransfers: viper.GetInt("client.max_transfers"),
		Exclude:      viper.GetStringSlice("client.exclude"),
		CachePath:    viper.GetString("server.cache.path"),
		Minio: MinioConfig{
			Endpoint:        viper.GetString("minio.endpoint"),
			AccessKeyID:     viper.GetString("minio.keyAccess"),
			SecretAccessKey: viper.GetString("minio.keySecret"),
			Bucket:          viper.GetString("minio.bucket"),
			Prefix:          viper.GetString("minio.prefix"),
			Secure:          viper.GetBool("minio.secure"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.ChunkSize <= 0 {
		return errors.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if c.MaxTransfers <= 0 {
		return errors.Errorf("invalid max transfers %d", c.MaxTransfers)
	}
	if _, err := rcopy.NewFingerprinter(c.Fingerprint); err != nil {
		return err
	}
	if _, err := rcopy.NewExclusion(c.Exclude...); err != nil {
		return err
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		return errors.New("minio bucket is required when an endpoint is set")
	}
	return nil
}
