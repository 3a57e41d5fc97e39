package etymology

import "strings"

// DefaultColor is used for languages outside the palette.
const DefaultColor = "#94a3b8"

// palette groups language families into hue bands: Germanic blues,
// Romance reds, Slavic greens, Indo-Iranian ambers, Semitic purples and
// proto-languages greys. Both ISO 639-1 and 639-3 codes are listed since
// the static and remote lexicons use different code sets.
var palette = map[string]string{
	"eng": "#3b82f6", "en": "#3b82f6",
	"ang":     "#60a5fa",
	"enm":     "#60a5fa",
	"gem-pro": "#93c5fd",

	"spa": "#ef4444", "es": "#ef4444",
	"lat": "#f87171", "la": "#f87171",
	"lat-med": "#fca5a5",

	"rus": "#22c55e", "ru": "#22c55e",
	"pol": "#4ade80", "pl": "#4ade80",

	"san": "#f59e0b", "sa": "#f59e0b",
	"hin": "#fbbf24", "hi": "#fbbf24",

	"ara": "#a855f7", "ar": "#a855f7",
	"heb": "#c084fc", "he": "#c084fc",

	"ine-pro": "#6b7280",
	"proto":   "#9ca3af",
}

// ColorFor returns the display colour of a language code. It is total:
// unknown codes get DefaultColor.
func ColorFor(code string) string {
	if c, ok := palette[code]; ok {
		return c
	}
	if strings.HasSuffix(code, "-pro") {
		return palette["proto"]
	}
	return DefaultColor
}

var languageNames = map[string]string{
	// modern
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "ru": "Russian", "ja": "Japanese",
	"zh": "Chinese", "ar": "Arabic", "hi": "Hindi", "nl": "Dutch",
	"sv": "Swedish", "no": "Norwegian", "da": "Danish", "fi": "Finnish",
	"pl": "Polish", "tr": "Turkish", "he": "Hebrew", "ko": "Korean",
	"el": "Greek", "cs": "Czech", "hu": "Hungarian", "ro": "Romanian",
	"th": "Thai", "vi": "Vietnamese", "id": "Indonesian", "ms": "Malay",

	// historical
	"enm": "Middle English", "ang": "Old English", "frm": "Middle French",
	"fro": "Old French", "goh": "Old High German", "gmh": "Middle High German",
	"gml": "Middle Low German", "osx": "Old Saxon", "odt": "Old Dutch",
	"dum": "Middle Dutch", "non": "Old Norse", "gmq-osw": "Old Swedish",
	"gmq-oda": "Old Danish", "la": "Latin", "VL": "Vulgar Latin",
	"lat-med": "Medieval Latin", "grc": "Ancient Greek", "grc-koi": "Koine Greek",
	"sa": "Sanskrit", "peo": "Old Persian", "fa": "Persian", "ae": "Avestan",

	// proto-languages
	"ine-pro": "Proto-Indo-European", "gem-pro": "Proto-Germanic",
	"gmw-pro": "Proto-West Germanic", "gmq-pro": "Proto-Norse",
	"itc-pro": "Proto-Italic", "cel-pro": "Proto-Celtic",
	"sla-pro": "Proto-Slavic", "ira-pro": "Proto-Iranian",
	"iir-pro": "Proto-Indo-Iranian", "grk-pro": "Proto-Hellenic",
	"roa-opt": "Old Portuguese", "roa-pro": "Proto-Romance",

	// celtic
	"ga": "Irish", "gd": "Scottish Gaelic", "cy": "Welsh", "br": "Breton",
	"kw": "Cornish", "sga": "Old Irish", "mga": "Middle Irish",

	// slavic
	"cu": "Old Church Slavonic", "orv": "Old East Slavic", "be": "Belarusian",
	"uk": "Ukrainian", "bg": "Bulgarian", "mk": "Macedonian", "sr": "Serbian",
	"hr": "Croatian", "sl": "Slovenian", "sk": "Slovak",

	// romance
	"ca": "Catalan", "gl": "Galician", "an": "Aragonese", "oc": "Occitan",
	"sc": "Sardinian",

	"sq": "Albanian", "hy": "Armenian", "ka": "Georgian", "eu": "Basque",
	"et": "Estonian", "lv": "Latvian", "lt": "Lithuanian", "yi": "Yiddish",
	"ur": "Urdu", "bn": "Bengali", "ta": "Tamil", "te": "Telugu",
	"ml": "Malayalam", "sw": "Swahili", "af": "Afrikaans",

	// three-letter forms used by the bundled datasets
	"eng": "English", "spa": "Spanish", "lat": "Latin", "rus": "Russian",
	"pol": "Polish", "san": "Sanskrit", "hin": "Hindi", "ara": "Arabic",
	"heb": "Hebrew", "fra": "French", "ita": "Italian", "por": "Portuguese",
}

// LanguageName returns the display name for a language code, or the code
// itself when it is not known.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// Family names used to group languages in legends.
const (
	FamilyGermanic    = "Germanic"
	FamilyRomance     = "Romance"
	FamilySlavic      = "Slavic"
	FamilyIndoIranian = "Indo-Iranian"
	FamilySemitic     = "Semitic"
	FamilyProto       = "Proto"
	FamilyOther       = "Other"
)

var families = map[string]string{
	"eng": FamilyGermanic, "en": FamilyGermanic, "ang": FamilyGermanic, "enm": FamilyGermanic,
	"non": FamilyGermanic, "de": FamilyGermanic, "nl": FamilyGermanic,
	"spa": FamilyRomance, "es": FamilyRomance, "lat": FamilyRomance, "la": FamilyRomance,
	"lat-med": FamilyRomance, "fr": FamilyRomance, "fro": FamilyRomance, "it": FamilyRomance,
	"pt": FamilyRomance,
	"rus": FamilySlavic, "ru": FamilySlavic, "pol": FamilySlavic, "pl": FamilySlavic,
	"san": FamilyIndoIranian, "sa": FamilyIndoIranian, "hin": FamilyIndoIranian, "hi": FamilyIndoIranian,
	"ara": FamilySemitic, "ar": FamilySemitic, "heb": FamilySemitic, "he": FamilySemitic,
}

// LanguageFamily returns the coarse family a language code belongs to.
// Reconstructed languages (codes ending in "-pro") are FamilyProto.
func LanguageFamily(code string) string {
	if strings.HasSuffix(code, "-pro") {
		return FamilyProto
	}
	if f, ok := families[code]; ok {
		return f
	}
	return FamilyOther
}
