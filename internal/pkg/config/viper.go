package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper implements Config on top of github.com/spf13/viper with live reload
// of the backing file.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at cfgPath and starts watching it for changes. The
// format is inferred from the file extension.
func NewViper(cfgPath string) (*Viper, error) {
	v := viper.New()

	name := filepath.Base(cfgPath)
	v.SetConfigName(strings.TrimSuffix(name, filepath.Ext(name)))
	v.AddConfigPath(filepath.Dir(cfgPath))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", cfgPath, "err", err)
			return
		}
		slog.Info("config reloaded", "path", cfgPath)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes parses in-memory configuration data, mainly for tests.
func NewViperFromBytes(format string, data []byte) (*Viper, error) {
	if strings.TrimSpace(format) == "" {
		return nil, errors.New("config format is required")
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32     { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint16(key string) uint16   { return uint16(vc.v.GetUint32(key)) }
func (vc *Viper) GetUint64(key string) uint64   { return vc.v.GetUint64(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

func (vc *Viper) GetHour(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Hour
}

func (vc *Viper) GetArray(key string) []string {
	if vals := vc.v.GetStringSlice(key); len(vals) > 0 {
		return vals
	}
	if s := vc.v.GetString(key); s != "" {
		return strings.Split(s, ",")
	}
	return nil
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// Close satisfies io.Closer; the watcher stops when the process exits.
func (vc *Viper) Close() error { return nil }
