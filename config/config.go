// Package config provides the configuration keys, defaults and helpers of a challengescot instance. Configuration
// is held by a viper instance that can be layered over defaults and environment variables (optionally loaded
// from a .env file)
package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"os"
	"strings"
	"time"
)

// Configuration keys
const (
	TokenKey                              = "token"                                           // Slack bot token (xoxb-...), string value
	AppTokenKey                           = "appToken"                                        // Slack app-level token used by socket mode (xapp-...), string value
	DebugKey                              = "debug"                                           // Debug mode, boolean value
	TimeLocationKey                       = "timeLocation"                                    // Time location used by scheduled actions, string value, defaults to Local
	StoragePathKey                        = "storagePath"                                     // Path of the local storage, string value
	StorageBackendKey                     = "storage.backend"                                 // Result archive backend (leveldb, datastore or none), string value
	StorageGCloudProjectIDKey             = "storage.gcloudProjectID"                         // Google cloud project id for the datastore backend, string value
	StorageGCloudCredentialsFileKey       = "storage.gcloudCredentialsFile"                   // Credentials file for the datastore backend, string value
	UserInfoCacheSizeKey                  = "userInfoCacheSize"                               // Number of user infos kept in cache, int value, 0 disables caching
	MessageProcessingPartitionCount       = "advanced.messageProcessingPartitionCount"        // Number of message processing partitions, int value, must be a power of two
	MessageProcessingBufferedMessageCount = "advanced.messageProcessingBufferedMessageCount" // Number of messages buffered by partition, int value
	MetricsListenAddrKey                  = "metrics.listenAddr"                              // Listen address of the metrics endpoint, string value, empty disables it
	PluginsKey                            = "plugins"                                         // Root key of plugin configurations
)

// Storage backends
const (
	LevelDBBackend   = "leveldb"
	DatastoreBackend = "datastore"
	NoBackend        = "none"
)

const (
	envPrefix = "CHALLENGESCOT"
)

// NewViperWithDefaults returns a new viper instance with all defaults set
func NewViperWithDefaults() (v *viper.Viper) {
	return LayerConfigWithDefaults(viper.New())
}

// LayerConfigWithDefaults sets defaults on an existing viper instance. Values already set take precedence
func LayerConfigWithDefaults(v *viper.Viper) *viper.Viper {
	v.SetDefault(DebugKey, false)
	v.SetDefault(TimeLocationKey, "Local")
	v.SetDefault(StoragePathKey, "~/.challengescot")
	v.SetDefault(StorageBackendKey, LevelDBBackend)
	v.SetDefault(UserInfoCacheSizeKey, 1000)
	v.SetDefault(MessageProcessingPartitionCount, 16)
	v.SetDefault(MessageProcessingBufferedMessageCount, 10)
	v.SetDefault(MetricsListenAddrKey, "")

	return v
}

// BindEnv loads the .env files, if any, and binds the tokens to their environment variables
// (CHALLENGESCOT_TOKEN and CHALLENGESCOT_APPTOKEN)
func BindEnv(v *viper.Viper, envFiles ...string) (err error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > 0 {
		if err = godotenv.Load(existing...); err != nil {
			return fmt.Errorf("Failed to load env files %v: %v", existing, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{TokenKey, AppTokenKey, DebugKey} {
		if err = v.BindEnv(key); err != nil {
			return err
		}
	}

	return nil
}

// GetTimeLocation returns the time location configured or an error if it's invalid
func GetTimeLocation(v *viper.Viper) (timeLoc *time.Location, err error) {
	timeLocName := v.GetString(TimeLocationKey)
	timeLoc, err = time.LoadLocation(timeLocName)
	if err != nil {
		return nil, fmt.Errorf("Unknown %s [%s]: %v", TimeLocationKey, timeLocName, err)
	}

	return timeLoc, nil
}

// GetPluginConfig returns the configuration of a plugin or an error if it's missing
func GetPluginConfig(v *viper.Viper, name string) (pc *viper.Viper, err error) {
	pc = v.Sub(fmt.Sprintf("%s.%s", PluginsKey, name))
	if pc == nil {
		return nil, fmt.Errorf("Missing plugin configuration for plugin [%s]", name)
	}

	return pc, nil
}
