package config

// Resolved is the fully-folded settings for one operation. An empty
// Exec means the session runs headless (no terminal spawned); the
// caller interacts with it purely through the CLI shims.
type Resolved struct {
	Exec string

	// Bin is the merged custom-shim map: root entries first, portal
	// entries over them, operation entries last. Later keys win.
	Bin map[string]string

	// BinDir is the most specific non-empty bin_dir.
	BinDir string
}

// Resolve folds operation-level settings over portal-level settings
// over root-level settings. Exec and BinDir take the most specific
// non-empty value; Bin maps are merged with later (more specific)
// keys winning. There is no auto-detection step: a missing Exec at
// every level simply means headless.
func Resolve(root *Root, portal, operation string) Resolved {
	var resolved Resolved
	if root == nil {
		return resolved
	}

	resolved.Exec = root.Exec
	resolved.BinDir = root.BinDir
	resolved.Bin = mergeBin(nil, root.Bin)

	p := root.portalConfig(portal)
	if p.Exec != "" {
		resolved.Exec = p.Exec
	}
	if p.BinDir != "" {
		resolved.BinDir = p.BinDir
	}
	resolved.Bin = mergeBin(resolved.Bin, p.Bin)

	if op, ok := p.Operations[operation]; ok {
		if op.Exec != "" {
			resolved.Exec = op.Exec
		}
		if op.BinDir != "" {
			resolved.BinDir = op.BinDir
		}
		resolved.Bin = mergeBin(resolved.Bin, op.Bin)
	}

	return resolved
}

func mergeBin(base, over map[string]string) map[string]string {
	if len(over) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(over))
	}
	for k, v := range over {
		base[k] = v
	}
	return base
}
