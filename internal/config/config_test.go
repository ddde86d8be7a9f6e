// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"mellium.im/jingle/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jinglectl.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("error writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
account:
  jid: "romeo@montague.lit"
  password: "juliet"
call:
  media: [audio, video]
  timeout: 5s
log:
  level: debug
  format: json
  file:
    path: /tmp/jinglectl.log
metrics:
  listen: "127.0.0.1:9090"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Account.JID != "romeo@montague.lit" || cfg.Account.Password != "juliet" {
		t.Errorf("wrong account: %+v", cfg.Account)
	}
	if len(cfg.Call.Media) != 2 || cfg.Call.Media[1] != "video" {
		t.Errorf("wrong media: %v", cfg.Call.Media)
	}
	if cfg.Call.Timeout != 5*time.Second {
		t.Errorf("wrong timeout: want=5s, got=%s", cfg.Call.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("wrong log config: %+v", cfg.Log)
	}
	if cfg.Log.File.MaxSize != 10 || cfg.Log.File.MaxBackups != 3 {
		t.Errorf("file rotation defaults not applied: %+v", cfg.Log.File)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("wrong metrics path: %q", cfg.Metrics.Path)
	}

	addr, err := cfg.Address()
	if err != nil {
		t.Fatalf("error parsing address: %v", err)
	}
	if s := addr.String(); s != "romeo@montague.lit/jinglectl" {
		t.Errorf("wrong address: want=romeo@montague.lit/jinglectl, got=%s", s)
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeConfig(t, `
account:
  jid: "romeo@montague.lit/orchard"
`)
	t.Setenv("JINGLECTL_ACCOUNT_PASSWORD", "secret")
	t.Setenv("JINGLECTL_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Account.Password != "secret" {
		t.Errorf("password not read from environment: %q", cfg.Account.Password)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level not read from environment: %q", cfg.Log.Level)
	}
	if cfg.Call.Timeout != 30*time.Second {
		t.Errorf("wrong default timeout: %s", cfg.Call.Timeout)
	}
	addr, err := cfg.Address()
	if err != nil {
		t.Fatalf("error parsing address: %v", err)
	}
	if s := addr.String(); s != "romeo@montague.lit/orchard" {
		t.Errorf("configured resource should not replace an existing one, got=%s", s)
	}
}

func TestLoadNoFile(t *testing.T) {
	t.Setenv("JINGLECTL_ACCOUNT_JID", "juliet@capulet.lit")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Account.JID != "juliet@capulet.lit" {
		t.Errorf("wrong jid: %q", cfg.Account.JID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

var invalidTests = [...]struct {
	cfg string
	err error
	msg string
}{
	0: {cfg: "log:\n  level: debug\n", err: config.ErrNoAccount},
	1: {cfg: "account:\n  jid: \"@bad\"\n", msg: "account.jid"},
	2: {cfg: "account:\n  jid: a@b\ncall:\n  media: [smell]\n", msg: "media type"},
	3: {cfg: "account:\n  jid: a@b\nlog:\n  level: loud\n", msg: "log.level"},
	4: {cfg: "account:\n  jid: a@b\nlog:\n  format: xml\n", msg: "log.format"},
	5: {cfg: "account:\n  jid: a@b\ncall:\n  timeout: -1s\n", msg: "call.timeout"},
}

func TestLoadInvalid(t *testing.T) {
	for i, tc := range invalidTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.cfg))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("wrong error: want=%v, got=%v", tc.err, err)
			}
			if tc.msg != "" && !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("error %q does not mention %q", err, tc.msg)
			}
		})
	}
}
