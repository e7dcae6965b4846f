package portal

import (
	"github.com/godbus/dbus/v5"

	"github.com/werdxz/portty/internal/daemon"
	"github.com/werdxz/portty/internal/pipeline"
)

// screenshot implements org.freedesktop.impl.portal.Screenshot.
type screenshot struct {
	exporter *Exporter
}

// colorTriple marshals as the (ddd) the PickColor results key carries.
type colorTriple struct {
	R, G, B float64
}

func (s *screenshot) Screenshot(handle dbus.ObjectPath, appID, parentWindow string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	opts := pipeline.ScreenshotOptions{
		Interactive: variantBool(options, "interactive"),
		Modal:       variantBool(options, "modal"),
		AppID:       appID,
	}

	ctx, end := s.exporter.beginRequest(handle)
	defer end()

	code, res := s.exporter.run(ctx, daemon.PortalRequestSpec{
		Portal:    "screenshot",
		Operation: "screenshot",
		Options:   opts,
		Env:       opts.Env(),
	})
	if code != responseSuccess || len(res.Entries) == 0 {
		return code, map[string]dbus.Variant{}, nil
	}
	return code, map[string]dbus.Variant{"uri": dbus.MakeVariant(res.Entries[0])}, nil
}

func (s *screenshot) PickColor(handle dbus.ObjectPath, appID, parentWindow string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	opts := pipeline.ScreenshotOptions{AppID: appID}

	ctx, end := s.exporter.beginRequest(handle)
	defer end()

	code, res := s.exporter.run(ctx, daemon.PortalRequestSpec{
		Portal:    "screenshot",
		Operation: "pick-color",
		Options:   opts,
		Env:       opts.Env(),
	})
	if code != responseSuccess || len(res.Entries) == 0 {
		return code, map[string]dbus.Variant{}, nil
	}

	// The pipeline already canonicalized and validated the color; a
	// parse failure here would be a bug, not user input.
	color, err := pipeline.ParseColor(res.Entries[0])
	if err != nil {
		return responseOther, map[string]dbus.Variant{}, nil
	}
	triple := colorTriple{color.R, color.G, color.B}
	return code, map[string]dbus.Variant{"color": dbus.MakeVariant(triple)}, nil
}
