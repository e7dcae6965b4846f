package config

import (
	"testing"

	"github.com/werdxz/portty/internal/fsys"
)

func TestLoadParsesOperationOverrides(t *testing.T) {
	fake := fsys.NewFake()
	fake.Files["/portty.toml"] = []byte(`
exec = "xterm -e"
builtin_path = "/usr/bin/portty"

[bin]
pick = "#!/bin/sh\nfzf --multi\n"

[file_chooser]
exec = "alacritty -e"

[file_chooser.operations.save-file]
exec = "kitty -e"
`)

	root, err := Load(fake, "/portty.toml")
	if err != nil {
		t.Fatal(err)
	}

	if root.Exec != "xterm -e" {
		t.Errorf("root Exec = %q", root.Exec)
	}
	if root.BuiltinPath != "/usr/bin/portty" {
		t.Errorf("BuiltinPath = %q", root.BuiltinPath)
	}
	if root.Bin["pick"] == "" {
		t.Error("root bin map missing pick entry")
	}
	if root.FileChooser.Exec != "alacritty -e" {
		t.Errorf("file_chooser Exec = %q", root.FileChooser.Exec)
	}
	if root.FileChooser.Operations["save-file"].Exec != "kitty -e" {
		t.Errorf("save-file Exec = %q", root.FileChooser.Operations["save-file"].Exec)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	fake := fsys.NewFake()
	if _, err := Load(fake, "/nope.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrDefaultMissingFileIsHeadless(t *testing.T) {
	fake := fsys.NewFake()
	root, err := LoadOrDefault(fake, "/nope.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if root.Exec != "" {
		t.Errorf("Exec = %q, want empty", root.Exec)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	root := &Root{Exec: "xterm -e", BuiltinPath: "/usr/bin/portty"}
	data, err := root.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Exec != root.Exec || got.BuiltinPath != root.BuiltinPath {
		t.Errorf("round-trip mismatch: %+v vs %+v", got, root)
	}
}
