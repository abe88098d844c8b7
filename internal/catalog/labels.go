package catalog

// Category labels group raw upstream category strings into a closed set
// the client styles against. Upstream mixes Russian and English spellings.
const (
	LabelSoft       = "soft"
	LabelHard       = "hard"
	LabelOther      = "other"
	LabelAdditional = "additional"
	LabelButton     = "button"
)

var categoryLabels = map[string]string{
	"софт-скилл":    LabelSoft,
	"софт-скил":     LabelSoft,
	"soft":          LabelSoft,
	"хард-скилл":    LabelHard,
	"хард-скил":     LabelHard,
	"hard":          LabelHard,
	"другое":        LabelOther,
	"other":         LabelOther,
	"дополнительно": LabelAdditional,
	"additional":    LabelAdditional,
	"кнопка":        LabelButton,
	"button":        LabelButton,
}

// Label normalizes a raw category string to one of the known labels.
// Unrecognized categories fall back to LabelOther.
func Label(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return LabelOther
}
