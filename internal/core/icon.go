package core

// Icon is the closed set of glyphs a category can display.
type Icon int

const (
	IconUnknown Icon = iota
	IconShoppingCart
	IconCar
	IconTicket
	IconLandmark
	IconHome
	IconGraduationCap
	IconHeartPulse
	IconUtensils
	IconGift
	IconPlane
	IconFileText
	IconShapes
)

var iconNames = map[Icon]string{
	IconUnknown:       "HelpCircle",
	IconShoppingCart:  "ShoppingCart",
	IconCar:           "Car",
	IconTicket:        "Ticket",
	IconLandmark:      "Landmark",
	IconHome:          "Home",
	IconGraduationCap: "GraduationCap",
	IconHeartPulse:    "HeartPulse",
	IconUtensils:      "Utensils",
	IconGift:          "Gift",
	IconPlane:         "Plane",
	IconFileText:      "FileText",
	IconShapes:        "Shapes",
}

var iconsByName = func() map[string]Icon {
	m := make(map[string]Icon, len(iconNames))
	for icon, name := range iconNames {
		if icon != IconUnknown {
			m[name] = icon
		}
	}
	return m
}()

// Palette is the set of colors offered for new categories.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#84cc16", "#22c55e", "#14b8a6",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#d946ef", "#ec4899",
}

// ResolveIcon maps an icon name to its glyph. Unknown names resolve to
// IconUnknown.
func ResolveIcon(name string) Icon {
	if icon, ok := iconsByName[name]; ok {
		return icon
	}
	return IconUnknown
}

// Icons returns the selectable icons in display order.
func Icons() []Icon {
	return []Icon{
		IconShoppingCart, IconCar, IconTicket, IconLandmark, IconHome, IconGraduationCap,
		IconHeartPulse, IconUtensils, IconGift, IconPlane, IconFileText, IconShapes,
	}
}

func (i Icon) String() string {
	if name, ok := iconNames[i]; ok {
		return name
	}
	return iconNames[IconUnknown]
}
