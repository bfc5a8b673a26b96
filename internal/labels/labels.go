// Package labels holds the bilingual display text for the four rice leaf
// classes and the page furniture around them.
package labels

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownLanguage is returned for a language outside the supported pair.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrClassIndex is returned for a class index outside [0, NumCategories).
	ErrClassIndex = errors.New("class index out of range")
)

// Category is a classifier output class, in model output order.
type Category int

const (
	BacterialLeafBlight Category = iota
	BrownSpot
	Healthy
	LeafSmut

	// NumCategories is the number of classes the model emits.
	NumCategories = 4
)

// Language is a supported display language.
type Language int

const (
	English Language = iota
	Indonesian

	numLanguages = 2
)

var languageKeys = [numLanguages]struct{ key, code string }{
	English:    {"English", "en"},
	Indonesian: {"Bahasa Indonesia", "id"},
}

// String returns the selector label, e.g. "Bahasa Indonesia".
func (l Language) String() string {
	if !l.valid() {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return languageKeys[l].key
}

// Code returns the two-letter code.
func (l Language) Code() string {
	if !l.valid() {
		return ""
	}
	return languageKeys[l].code
}

func (l Language) valid() bool {
	return l >= 0 && l < numLanguages
}

// Languages returns the supported languages in selector order.
func Languages() []Language {
	return []Language{English, Indonesian}
}

// ParseLanguage accepts a selector label or a two-letter code, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for i, k := range languageKeys {
		if strings.EqualFold(s, k.key) || strings.EqualFold(s, k.code) {
			return Language(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownLanguage, "%q", s)
}

// Bundle is everything shown for one class in one language.
type Bundle struct {
	Category    Category `json:"-"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prevention  []string `json:"prevention"`
	Asset       string   `json:"asset"`
}

type record struct {
	name        string
	description string
	prevention  []string
}

type entry struct {
	key  string
	text [numLanguages]record
}

// table is indexed by Category, then by Language.
var table = [NumCategories]entry{
	BacterialLeafBlight: {
		key: "Bacterial leaf blight",
		text: [numLanguages]record{
			English: {
				name:        "Bacterial Leaf Blight",
				description: "A bacterial disease that causes wilting and yellowing of rice leaves, usually in warm, humid climates.",
				prevention: []string{
					"Use resistant rice varieties.",
					"Avoid excessive nitrogen fertilizers.",
					"Maintain proper field drainage.",
					"Use certified seeds and practice crop rotation.",
				},
			},
			Indonesian: {
				name:        "Hawar Daun Bakteri",
				description: "Penyakit bakteri yang menyebabkan layu dan menguning pada daun padi, biasanya di iklim hangat dan lembap.",
				prevention: []string{
					"Gunakan varietas padi tahan penyakit.",
					"Hindari penggunaan pupuk nitrogen yang berlebihan.",
					"Jaga saluran air sawah agar tidak tergenang.",
					"Gunakan benih bersertifikat dan lakukan rotasi tanaman.",
				},
			},
		},
	},
	BrownSpot: {
		key: "Brown spot",
		text: [numLanguages]record{
			English: {
				name:        "Brown Spot",
				description: "A fungal disease that causes brown lesions on leaves and reduces grain yield.",
				prevention: []string{
					"Use balanced fertilizers (especially potassium).",
					"Ensure good drainage and avoid water stagnation.",
					"Use resistant varieties and treat seeds with fungicide.",
				},
			},
			Indonesian: {
				name:        "Bintik Cokelat",
				description: "Penyakit jamur yang menyebabkan lesi coklat pada daun dan mengurangi hasil biji-bijian.",
				prevention: []string{
					"Gunakan pupuk berimbang (terutama kalium).",
					"Pastikan drainase yang baik dan hindari genangan air.",
					"Gunakan varietas yang tahan dan obati benih dengan fungisida.",
				},
			},
		},
	},
	Healthy: {
		key: "Healthy",
		text: [numLanguages]record{
			English: {
				name:        "Healthy",
				description: "Leaves are green and free from visible symptoms or infections.",
				prevention: []string{
					"Continue good agricultural practices.",
					"Monitor crops regularly for early signs of stress or disease.",
				},
			},
			Indonesian: {
				name:        "Sehat",
				description: "Daunnya hijau dan bebas dari gejala atau infeksi yang terlihat.",
				prevention: []string{
					"Lanjutkan praktik pertanian yang baik.",
					"Pantau tanaman secara teratur untuk mengetahui tanda-tanda awal stres atau penyakit.",
				},
			},
		},
	},
	LeafSmut: {
		key: "Leaf smut",
		text: [numLanguages]record{
			English: {
				name:        "Leaf Smut",
				description: "Caused by a fungal pathogen, this disease forms blackish spots or streaks on leaves.",
				prevention: []string{
					"Avoid excessive nitrogen application.",
					"Apply recommended fungicides when early symptoms appear.",
					"Ensure adequate plant spacing and ventilation.",
				},
			},
			Indonesian: {
				name:        "Api Daun",
				description: "Disebabkan oleh patogen jamur, penyakit ini membentuk bintik-bintik atau garis-garis kehitaman pada daun.",
				prevention: []string{
					"Hindari pemberian nitrogen berlebihan.",
					"Terapkan fungisida yang direkomendasikan saat gejala awal muncul.",
					"Pastikan jarak tanaman dan ventilasi yang memadai.",
				},
			},
		},
	},
}

// Categories returns all classes in model output order.
func Categories() []Category {
	return []Category{BacterialLeafBlight, BrownSpot, Healthy, LeafSmut}
}

// Key returns the canonical class name, e.g. "Leaf smut".
func (c Category) Key() string {
	if c < 0 || c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return table[c].key
}

// AssetName is the info image file for c: the key lowercased with spaces
// replaced by underscores, plus ".jpg".
func AssetName(c Category) string {
	return strings.ReplaceAll(strings.ToLower(c.Key()), " ", "_") + ".jpg"
}

// Resolve returns the display bundle for a class index in lang.
func Resolve(index int, lang Language) (Bundle, error) {
	if !lang.valid() {
		return Bundle{}, errors.Wrapf(ErrUnknownLanguage, "%d", int(lang))
	}
	if index < 0 || index >= NumCategories {
		return Bundle{}, errors.Wrapf(ErrClassIndex, "%d", index)
	}

	c := Category(index)
	rec := table[c].text[lang]
	prevention := make([]string, len(rec.prevention))
	copy(prevention, rec.prevention)

	return Bundle{
		Category:    c,
		Key:         table[c].key,
		Name:        rec.name,
		Description: rec.description,
		Prevention:  prevention,
		Asset:       AssetName(c),
	}, nil
}

// All resolves every class in lang, in model output order.
func All(lang Language) ([]Bundle, error) {
	bundles := make([]Bundle, 0, NumCategories)
	for _, c := range Categories() {
		b, err := Resolve(int(c), lang)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}
