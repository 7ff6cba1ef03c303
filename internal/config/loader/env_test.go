package loader_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/dshills/cmdqueue/internal/config/loader"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestEnvLoader_Load(t *testing.T) {
	l := loader.NewEnvLoaderWithEnviron(loader.DefaultEnvPrefix, environ(
		"CMDQUEUE_LOG_LEVEL=debug",
		"CMDQUEUE_MAX_PASSES=25",
		"CMDQUEUE_METRICS=yes",
		"CMDQUEUE_DISPATCHER_RECEIVER=screen",
		"CMDQUEUE_PROMPT=",
		"HOME=/root",
	))

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		section, key string
		want         any
	}{
		{"logging", "level", loader.Raw("debug")},
		{"invoker", "max_passes", loader.Raw("25")},
		{"invoker", "metrics", loader.Raw("yes")},
		{"dispatcher", "receiver", loader.Raw("screen")},
		{"dispatcher", "prompt", loader.Raw("")},
	}

	for _, tt := range tests {
		section, ok := config[tt.section].(map[string]any)
		if !ok {
			t.Errorf("missing section %q", tt.section)
			continue
		}
		if got := section[tt.key]; got != tt.want {
			t.Errorf("%s.%s = %v (%T), want %v", tt.section, tt.key, got, got, tt.want)
		}
	}
	if _, ok := config["home"]; ok {
		t.Error("expected unprefixed variables to be ignored")
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := loader.NewEnvLoaderWithEnviron("APP_", environ("APP_X=off"))
	l.AddMapping("APP_X", "invoker.recover_panics")

	config, _ := l.Load()
	inv, ok := config["invoker"].(map[string]any)
	if !ok || inv["recover_panics"] != loader.Raw("off") {
		t.Errorf("unexpected config: %v", config)
	}
}

func TestEnvLoader_IgnoresBareNames(t *testing.T) {
	l := loader.NewEnvLoaderWithEnviron(loader.DefaultEnvPrefix, environ("CMDQUEUE_HOME=/x", "CMDQUEUE_=1"))

	config, _ := l.Load()
	if len(config) != 0 {
		t.Errorf("expected empty config, got %v", config)
	}
}

func TestDotenvLoader_Load(t *testing.T) {
	fsys := fstest.MapFS{
		".env": {Data: []byte(`
# local overrides
CMDQUEUE_LOG_LEVEL=warn
CMDQUEUE_INVOKER_MAX_PASSES=7
export CMDQUEUE_PROMPT="hit? (1/0)"
OTHER=ignored
`)},
	}

	config, err := loader.NewDotenvLoaderWithFS(fsys, ".env", loader.DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if lvl := config["logging"].(map[string]any)["level"]; lvl != loader.Raw("warn") {
		t.Errorf("logging.level = %v, want warn", lvl)
	}
	if mp := config["invoker"].(map[string]any)["max_passes"]; mp != loader.Raw("7") {
		t.Errorf("invoker.max_passes = %v, want 7", mp)
	}
	if p := config["dispatcher"].(map[string]any)["prompt"]; p != loader.Raw("hit? (1/0)") {
		t.Errorf("dispatcher.prompt = %v", p)
	}
	if _, ok := config["other"]; ok {
		t.Error("expected unprefixed variables to be ignored")
	}
}

func TestDotenvLoader_ParseError(t *testing.T) {
	fsys := fstest.MapFS{
		".env": {Data: []byte("CMDQUEUE_PROMPT='unterminated\n")},
	}

	_, err := loader.NewDotenvLoaderWithFS(fsys, ".env", loader.DefaultEnvPrefix).Load()
	var perr *loader.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}
