package backend

import (
	"errors"
	"fmt"
	"strings"

	"lapkeu/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(strings.ToLower(appConfig.DataBackend))
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:       backendType,
		DocumentID: appConfig.DocumentID,

		JSONBinBaseURL:   appConfig.JSONBinBaseURL,
		JSONBinBinID:     appConfig.JSONBinBinID,
		JSONBinMasterKey: appConfig.JSONBinMasterKey,
		HTTPTimeout:      appConfig.StoreTimeout,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,

		MemorySeedFile: appConfig.MemorySeedFile,
	}, nil
}

// Validate checks the settings that cannot be deferred to the first
// request. Missing JSONBin or Mongo secrets are not errors here.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{JSONBinBackend, MemoryBackend, SQLiteBackend, MongoBackend}
}

// GetBackendTypeStrings returns all valid backend type strings.
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
