package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kaiakz/rcopy-os/rcopy"
)

const SAMPLE_CONFIG = "config.toml"

func init() {
	viper.SetDefault("port", rcopy.DEFAULT_PORT)
	viper.SetDefault("chunk_size", rcopy.CHUNK_SIZE)
	viper.SetDefault("fingerprint", "xor")
	viper.SetDefault("client.max_transfers", rcopy.MAX_TRANSFERS)
	viper.SetDefault("client.exclude", []string{})
	viper.SetDefault("server.cache.path", "")
	viper.SetDefault("minio.endpoint", "")
	viper.SetDefault("minio.bucket", "rcopy")
	viper.SetDefault("minio.prefix", "")
	viper.SetDefault("minio.secure", false)
}

// Read ./config.toml, or the file named by --config. A missing default file is
// replaced by a sample and the built-in defaults apply.
func loadConfigIfExists(cmd *cobra.Command) error {
	viper.SetEnvPrefix("RCOPY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	err := viper.ReadInConfig()
	if err == nil {
		slog.Debug("config loaded", "file", viper.ConfigFileUsed())
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
		return errors.Wrap(err, "read config")
	}
	if err := createSampleConfig(SAMPLE_CONFIG); err != nil {
		slog.Warn("can't create a sample of config", "error", err)
	} else {
		slog.Info("config does not exist, a sample was created", "file", SAMPLE_CONFIG)
	}
	return nil
}

func createSampleConfig(name string) error {
	confSample := []byte(`title = "configuration of rcopy-os"

port = 30000
chunk_size = 256
# xor or md4, the client and the server must agree
fingerprint = "xor"

[client]
  max_transfers = 16
  exclude = []

[server]
  [server.cache]
    # fingerprint cache, empty disables it
    path = ""

# every verified file is also put to this bucket, empty endpoint disables it
[minio]
  endpoint = ""
  keyAccess = "minioadmin"
  keySecret = "minioadmin"
  bucket = "rcopy"
  prefix = ""
  secure = false
`)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	if _, err := f.Write(confSample); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
