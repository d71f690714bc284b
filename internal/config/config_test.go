package config

import (
	"errors"
	"strings"
	"testing"
)

type fakeBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{strings: map[string]string{}, ints: map[string]int{}}
}

func (b *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := b.strings[key]
	return v, ok, nil
}

func (b *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *fakeBackend) SetString(key, val string) error {
	b.strings[key] = val
	return nil
}

func (b *fakeBackend) SetInt(key string, val int) error {
	b.ints[key] = val
	return nil
}

func (b *fakeBackend) Delete(key string) error {
	delete(b.strings, key)
	delete(b.ints, key)
	return nil
}

type fakeKeychain struct {
	secrets map[string]string
	getErr  error
}

func newFakeKeychain() *fakeKeychain {
	return &fakeKeychain{secrets: map[string]string{}}
}

func (k *fakeKeychain) Get(service, account string) (string, error) {
	if k.getErr != nil {
		return "", k.getErr
	}
	v, ok := k.secrets[service+"/"+account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (k *fakeKeychain) Set(service, account, value string) error {
	k.secrets[service+"/"+account] = value
	return nil
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "env-key")

	cfg, err := loadWith(newFakeBackend(), newFakeKeychain())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("base url = %q", cfg.Gemini.BaseURL)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadBackendOverridesDefaults(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "env-key")

	b := newFakeBackend()
	b.ints["server.port"] = 5700
	b.strings["gemini.model"] = "gemini-2.5-pro"
	b.strings["log.level"] = "debug"

	cfg, err := loadWith(b, newFakeKeychain())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 5700 {
		t.Errorf("port = %d, want 5700", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverridesBackend(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "env-key")
	t.Setenv("SHIZUKU_SERVER_PORT", "6800")
	t.Setenv("SHIZUKU_GEMINI_MODEL", "gemini-env-model")

	b := newFakeBackend()
	b.ints["server.port"] = 5700
	b.strings["gemini.model"] = "gemini-backend-model"

	cfg, err := loadWith(b, newFakeKeychain())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 6800 {
		t.Errorf("port = %d, want env override 6800", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-env-model" {
		t.Errorf("model = %q, want env override", cfg.Gemini.Model)
	}
}

func TestLoadMalformedPortEnvKeepsDefault(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "env-key")
	t.Setenv("SHIZUKU_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newFakeBackend(), newFakeKeychain())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d, want default 4600", cfg.Server.Port)
	}
}

func TestLoadAPIKeyFromKeychain(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "")

	kc := newFakeKeychain()
	kc.Set("shizuku", "gemini_api_key", "keychain-key")

	cfg, err := loadWith(newFakeBackend(), kc)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Gemini.APIKey != "keychain-key" {
		t.Errorf("api key = %q, want keychain fallback", cfg.Gemini.APIKey)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("SHIZUKU_GEMINI_API_KEY", "")

	_, err := loadWith(newFakeBackend(), newFakeKeychain())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "SHIZUKU_GEMINI_API_KEY") {
		t.Errorf("error %q should name the env var", err)
	}
}

func TestGetAPITokenGeneratesAndPersists(t *testing.T) {
	kc := newFakeKeychain()

	token, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}

	again, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("second GetAPIToken: %v", err)
	}
	if again != token {
		t.Error("token not persisted across calls")
	}
}
