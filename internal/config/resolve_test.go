package config

import "testing"

func TestResolveFoldsOperationOverPortalOverRoot(t *testing.T) {
	root := &Root{
		Exec: "xterm -e",
		FileChooser: Portal{
			Exec: "alacritty -e",
			Operations: map[string]Operation{
				"save-file": {Exec: "kitty -e"},
			},
		},
	}

	if got := Resolve(root, "file-chooser", "open-file"); got.Exec != "alacritty -e" {
		t.Errorf("open-file Exec = %q, want portal-level override", got.Exec)
	}
	if got := Resolve(root, "file-chooser", "save-file"); got.Exec != "kitty -e" {
		t.Errorf("save-file Exec = %q, want operation-level override", got.Exec)
	}
	if got := Resolve(root, "screenshot", "screenshot"); got.Exec != "xterm -e" {
		t.Errorf("screenshot Exec = %q, want root-level fallback", got.Exec)
	}
}

func TestResolveEmptyExecMeansHeadless(t *testing.T) {
	root := &Root{}
	got := Resolve(root, "file-chooser", "open-file")
	if got.Exec != "" {
		t.Errorf("Exec = %q, want empty (headless)", got.Exec)
	}
}

func TestResolveNilRootIsHeadless(t *testing.T) {
	got := Resolve(nil, "file-chooser", "open-file")
	if got.Exec != "" || got.Bin != nil {
		t.Errorf("Resolve(nil, ...) = %+v, want zero value", got)
	}
}

func TestResolveMergesBinMapsLaterKeysWin(t *testing.T) {
	root := &Root{
		Bin: map[string]string{
			"sel":  "#!/bin/sh\necho root\n",
			"pick": "#!/bin/sh\necho root-pick\n",
		},
		FileChooser: Portal{
			Bin: map[string]string{"pick": "#!/bin/sh\necho portal-pick\n"},
			Operations: map[string]Operation{
				"save-file": {Bin: map[string]string{"sel": "#!/bin/sh\necho op-sel\n"}},
			},
		},
	}

	got := Resolve(root, "file-chooser", "save-file")
	if got.Bin["sel"] != "#!/bin/sh\necho op-sel\n" {
		t.Errorf("sel = %q, want operation-level body", got.Bin["sel"])
	}
	if got.Bin["pick"] != "#!/bin/sh\necho portal-pick\n" {
		t.Errorf("pick = %q, want portal-level body", got.Bin["pick"])
	}
	if len(got.Bin) != 2 {
		t.Errorf("Bin has %d entries, want 2: %v", len(got.Bin), got.Bin)
	}
}

func TestResolveBinDirMostSpecificWins(t *testing.T) {
	root := &Root{
		BinDir: "/etc/portty/bin",
		FileChooser: Portal{
			BinDir: "/etc/portty/fc-bin",
		},
	}
	if got := Resolve(root, "file-chooser", "open-file"); got.BinDir != "/etc/portty/fc-bin" {
		t.Errorf("BinDir = %q, want portal-level override", got.BinDir)
	}
	if got := Resolve(root, "screenshot", "pick-color"); got.BinDir != "/etc/portty/bin" {
		t.Errorf("BinDir = %q, want root-level fallback", got.BinDir)
	}
}
