package secrets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

const EnvPrefix = "TENANTAPI"

// Local resolves secrets from the environment (TENANTAPI_<NAME>) and an
// optional YAML/JSON/TOML file. The file is re-read whenever it changes once
// Watch is running.
type Local struct {
	file string
	log  *zap.Logger

	mu sync.RWMutex
	v  *viper.Viper
}

func NewLocal(file string, log *zap.Logger) (*Local, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Local{file: file, log: log}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the secrets file and swaps it in atomically.
func (l *Local) Reload() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_", "/", "_"))
	v.AutomaticEnv()

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read secrets file %s: %w", l.file, err)
		}
	}

	l.mu.Lock()
	l.v = v
	l.mu.Unlock()
	return nil
}

func (l *Local) Secret(_ context.Context, ref string) (string, error) {
	name, field := splitRef(ref)
	if name == "" {
		return "", domain.NewValidationError("secret name is required")
	}

	l.mu.RLock()
	v := l.v
	l.mu.RUnlock()

	if field != "" {
		if val := v.GetString(name + "." + field); val != "" {
			return val, nil
		}
		raw := v.GetString(name)
		if raw == "" {
			return "", domain.NotFoundError("secret %s", name)
		}
		return extractField(raw, name, field)
	}

	val := v.GetString(name)
	if val == "" {
		return "", domain.NotFoundError("secret %s", name)
	}
	return val, nil
}

// Watch reloads the secrets file on every write until ctx is done. It is a
// no-op without a file.
func (l *Local) Watch(ctx context.Context) error {
	if l.file == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create secrets watcher: %w", err)
	}
	// Editors replace files, so watch the directory rather than the file.
	if err := watcher.Add(filepath.Dir(l.file)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch secrets dir: %w", err)
	}

	target := filepath.Clean(l.file)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := l.Reload(); err != nil {
					l.log.Warn("secrets reload failed", zap.String("file", l.file), zap.Error(err))
					continue
				}
				l.log.Info("secrets reloaded", zap.String("file", l.file))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Warn("secrets watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
