package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	v := viper.New()
	SetDefaults(v, dir)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AudioDir != "audio" {
		t.Errorf("AudioDir = %q, want audio", cfg.AudioDir)
	}
	if want := filepath.Join(dir, "files_id.json"); cfg.StorePath != want {
		t.Errorf("StorePath = %q, want %q", cfg.StorePath, want)
	}
	if cfg.EnvFile != DefaultEnvFile {
		t.Errorf("EnvFile = %q", cfg.EnvFile)
	}
	if cfg.PollTimeout != 60*time.Second {
		t.Errorf("PollTimeout = %s", cfg.PollTimeout)
	}
	if cfg.RateLimit != 1 || cfg.Burst != 3 {
		t.Errorf("RateLimit/Burst = %g/%d", cfg.RateLimit, cfg.Burst)
	}
	if cfg.Notify {
		t.Error("Notify should default to false")
	}
	if !cfg.Watch {
		t.Error("Watch should default to true")
	}
	if len(cfg.Admins) != 0 {
		t.Errorf("Admins = %v", cfg.Admins)
	}
	if cfg.Token != "" {
		t.Error("Load must not fill the token")
	}
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v, t.TempDir())

	v.Set("audio.dir", "/srv/aoe2")
	v.Set("store.path", "/var/lib/aoe2/ids.json")
	v.Set("telegram.poll_timeout", "30s")
	v.Set("telegram.rate_limit", 0.5)
	v.Set("telegram.burst", 1)
	v.Set("telegram.notify", true)
	v.Set("watch", false)
	v.Set("admins", []any{12345, 67890})

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AudioDir != "/srv/aoe2" {
		t.Errorf("AudioDir = %q", cfg.AudioDir)
	}
	if cfg.StorePath != "/var/lib/aoe2/ids.json" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.PollTimeout != 30*time.Second {
		t.Errorf("PollTimeout = %s", cfg.PollTimeout)
	}
	if cfg.RateLimit != 0.5 || cfg.Burst != 1 {
		t.Errorf("RateLimit/Burst = %g/%d", cfg.RateLimit, cfg.Burst)
	}
	if !cfg.Notify || cfg.Watch {
		t.Errorf("Notify/Watch = %v/%v", cfg.Notify, cfg.Watch)
	}
	if !slices.Equal(cfg.Admins, []int64{12345, 67890}) {
		t.Errorf("Admins = %v", cfg.Admins)
	}
	if !cfg.IsAdmin(67890) || cfg.IsAdmin(1) {
		t.Error("IsAdmin mismatch")
	}
}

func TestLoad_AdminsFromString(t *testing.T) {
	v := viper.New()
	SetDefaults(v, t.TempDir())
	v.Set("admins", "111,222 333")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !slices.Equal(cfg.Admins, []int64{111, 222, 333}) {
		t.Errorf("Admins = %v", cfg.Admins)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"bad duration", "telegram.poll_timeout", "soon"},
		{"short poll", "telegram.poll_timeout", "10ms"},
		{"negative rate", "telegram.rate_limit", -1},
		{"zero burst", "telegram.burst", 0},
		{"bad admin", "admins", []string{"alice"}},
		{"empty audio dir", "audio.dir", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v, t.TempDir())
			v.Set(tt.key, tt.value)

			if _, err := Load(v); err == nil {
				t.Errorf("Load accepted %s = %v", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	v := viper.New()
	SetDefaults(v, t.TempDir())
	v.Set("audio.dir", "~/aoe2/audio")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := filepath.Join(home, "aoe2", "audio"); cfg.AudioDir != want {
		t.Errorf("AudioDir = %q, want %q", cfg.AudioDir, want)
	}
}

func TestValidate_RateLimitDisabled(t *testing.T) {
	cfg := Default()
	cfg.StorePath = "/tmp/ids.json"
	cfg.RateLimit = 0
	cfg.Burst = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed with rate limit disabled: %v", err)
	}
}

func TestConfigDirs(t *testing.T) {
	dirs, err := ConfigDirs(Env{ConfigHome: "/custom", XDGConfigHome: "/xdg"})
	if err != nil {
		t.Fatalf("ConfigDirs failed: %v", err)
	}
	if len(dirs) < 2 {
		t.Fatalf("ConfigDirs = %v", dirs)
	}
	if dirs[0] != "/custom" {
		t.Errorf("dirs[0] = %q, want /custom", dirs[0])
	}
	if dirs[1] != filepath.Join("/xdg", AppName) {
		t.Errorf("dirs[1] = %q", dirs[1])
	}
}

func TestSetup_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "audio:\n  dir: /srv/sounds\ntelegram:\n  burst: 5\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigName+".yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	used, err := Setup(v, Env{ConfigHome: dir}, "")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if used != filepath.Join(dir, ConfigName+".yml") {
		t.Errorf("config file = %q", used)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AudioDir != "/srv/sounds" || cfg.Burst != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.StorePath != filepath.Join(dir, StoreFile) {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
}

func TestSetup_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AOE2BOT_AUDIO_DIR", "/from/env")

	v := viper.New()
	used, err := Setup(v, Env{ConfigHome: dir}, "")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if want := filepath.Join(dir, ConfigName+".yml"); used != want {
		t.Errorf("default config path = %q, want %q", used, want)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AudioDir != "/from/env" {
		t.Errorf("AudioDir = %q", cfg.AudioDir)
	}
}

func TestSetup_BrokenExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	if err := os.WriteFile(path, []byte("audio: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Setup(viper.New(), Env{ConfigHome: t.TempDir()}, path); err == nil {
		t.Error("Setup accepted an unparsable config file")
	}
}

func TestResolveToken(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env")
	content := "# bot settings\nOTHER=1\n  TGB_TOKEN= 123:abc  \n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("environment wins", func(t *testing.T) {
		got, err := ResolveToken(Env{Token: "from-env"}, envFile)
		if err != nil {
			t.Fatalf("ResolveToken failed: %v", err)
		}
		if got != "from-env" {
			t.Errorf("token = %q", got)
		}
	})

	t.Run("env file", func(t *testing.T) {
		got, err := ResolveToken(Env{}, envFile)
		if err != nil {
			t.Fatalf("ResolveToken failed: %v", err)
		}
		if got != "123:abc" {
			t.Errorf("token = %q, want 123:abc", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		missing := filepath.Join(dir, "nope")
		_, err := ResolveToken(Env{}, missing)
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("error = %v, want ErrMissingToken", err)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("error %q does not name the env file", err)
		}
	})

	t.Run("file without token", func(t *testing.T) {
		other := filepath.Join(dir, "other")
		if err := os.WriteFile(other, []byte("FOO=bar\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ResolveToken(Env{}, other); !errors.Is(err, ErrMissingToken) {
			t.Errorf("error = %v, want ErrMissingToken", err)
		}
	})
}

func TestReadEnv(t *testing.T) {
	t.Setenv("TGB_TOKEN", "42:xyz")
	t.Setenv("AOE2BOT_CONFIG_HOME", "/etc/aoe2")

	e, err := ReadEnv()
	if err != nil {
		t.Fatalf("ReadEnv failed: %v", err)
	}
	if e.Token != "42:xyz" || e.ConfigHome != "/etc/aoe2" {
		t.Errorf("Env = %+v", e)
	}
}
