package portal

import "github.com/godbus/dbus/v5"

// Interface versions reported to xdg-desktop-portal.
const (
	fileChooserVersion uint32 = 3
	screenshotVersion  uint32 = 2
)

// propsHandler answers org.freedesktop.DBus.Properties for the version
// properties. Everything else is unknown and everything is read-only.
type propsHandler struct{}

func (propsHandler) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if property != "version" {
		return dbus.Variant{}, dbus.MakeFailedError(errUnknownProperty(iface, property))
	}
	switch iface {
	case "org.freedesktop.impl.portal.FileChooser":
		return dbus.MakeVariant(fileChooserVersion), nil
	case "org.freedesktop.impl.portal.Screenshot":
		return dbus.MakeVariant(screenshotVersion), nil
	}
	return dbus.Variant{}, dbus.MakeFailedError(errUnknownProperty(iface, property))
}

func (propsHandler) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	v, err := propsHandler{}.Get(iface, "version")
	if err != nil {
		return map[string]dbus.Variant{}, nil
	}
	return map[string]dbus.Variant{"version": v}, nil
}

func (propsHandler) Set(iface, property string, value dbus.Variant) *dbus.Error {
	return dbus.MakeFailedError(errUnknownProperty(iface, property))
}

type unknownPropertyError struct{ iface, property string }

func (e unknownPropertyError) Error() string {
	return "unknown property " + e.iface + "." + e.property
}

func errUnknownProperty(iface, property string) error {
	return unknownPropertyError{iface, property}
}
