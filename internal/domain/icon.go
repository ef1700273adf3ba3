package domain

// DefaultIcon is used for identifiers missing from the icon table.
const DefaultIcon = "Tag"

// knownIcons is the fixed set of icon identifiers clients know how to render.
var knownIcons = map[string]struct{}{
	"Tag":           {},
	"Folder":        {},
	"Users":         {},
	"Laptop":        {},
	"Building2":     {},
	"Briefcase":     {},
	"Calendar":      {},
	"ChartBar":      {},
	"Clock":         {},
	"Cloud":         {},
	"Code":          {},
	"Database":      {},
	"DollarSign":    {},
	"FileText":      {},
	"Globe":         {},
	"GraduationCap": {},
	"Headphones":    {},
	"Heart":         {},
	"Home":          {},
	"Mail":          {},
	"MessageSquare": {},
	"Phone":         {},
	"Server":        {},
	"Settings":      {},
	"Shield":        {},
	"ShoppingCart":  {},
	"Truck":         {},
	"Wrench":        {},
}

// ResolveIcon maps an icon identifier to a renderable one, falling back to
// DefaultIcon.
func ResolveIcon(name string) string {
	if _, ok := knownIcons[name]; ok {
		return name
	}
	return DefaultIcon
}
