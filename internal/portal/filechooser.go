package portal

import (
	"github.com/godbus/dbus/v5"

	"github.com/werdxz/portty/internal/daemon"
	"github.com/werdxz/portty/internal/pipeline"
)

// fileChooser implements org.freedesktop.impl.portal.FileChooser.
type fileChooser struct {
	exporter *Exporter
}

func (f *fileChooser) OpenFile(handle dbus.ObjectPath, appID, parentWindow, title string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	opts := pipeline.FileChooserOptions{
		Title:         title,
		Multiple:      variantBool(options, "multiple"),
		Directory:     variantBool(options, "directory"),
		CurrentFolder: variantBytesPath(options, "current_folder"),
		Filters:       variantFilters(options, "filters"),
	}

	ctx, end := f.exporter.beginRequest(handle)
	defer end()

	code, res := f.exporter.run(ctx, daemon.PortalRequestSpec{
		Portal:    "file-chooser",
		Operation: "open-file",
		Title:     title,
		Options:   opts,
		Env:       opts.Env(),
	})
	return code, uriResults(res), nil
}

func (f *fileChooser) SaveFile(handle dbus.ObjectPath, appID, parentWindow, title string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	opts := pipeline.FileChooserOptions{
		Title:         title,
		SaveMode:      true,
		CurrentFolder: variantBytesPath(options, "current_folder"),
		Filters:       variantFilters(options, "filters"),
	}
	if name := variantString(options, "current_name"); name != "" {
		opts.Candidates = []string{name}
	}

	// An existing target file seeds the submission so the user can
	// confirm it as-is.
	var initial []string
	if cur := variantBytesPath(options, "current_file"); cur != "" {
		initial = []string{cur}
	}

	ctx, end := f.exporter.beginRequest(handle)
	defer end()

	code, res := f.exporter.run(ctx, daemon.PortalRequestSpec{
		Portal:         "file-chooser",
		Operation:      "save-file",
		Title:          title,
		Options:        opts,
		Env:            opts.Env(),
		InitialEntries: initial,
	})
	return code, uriResults(res), nil
}

func (f *fileChooser) SaveFiles(handle dbus.ObjectPath, appID, parentWindow, title string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	opts := pipeline.FileChooserOptions{
		Title:         title,
		Multiple:      true,
		Directory:     true,
		SaveMode:      true,
		CurrentFolder: variantBytesPath(options, "current_folder"),
		Candidates:    variantByteLists(options, "files"),
	}

	ctx, end := f.exporter.beginRequest(handle)
	defer end()

	code, res := f.exporter.run(ctx, daemon.PortalRequestSpec{
		Portal:    "file-chooser",
		Operation: "save-files",
		Title:     title,
		Options:   opts,
		Env:       opts.Env(),
	})
	return code, uriResults(res), nil
}

func uriResults(res daemon.PortalResult) map[string]dbus.Variant {
	if len(res.Entries) == 0 {
		return map[string]dbus.Variant{}
	}
	return map[string]dbus.Variant{"uris": dbus.MakeVariant(res.Entries)}
}
