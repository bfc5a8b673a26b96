package labels

import (
	"fmt"

	"github.com/pkg/errors"
)

// Strings is the page text for one language.
type Strings struct {
	Language         string
	Title            string
	Description      string
	UploadTab        string
	WebcamTab        string
	UploadHint       string
	WebcamHint       string
	Submit           string
	Result           string
	Confidence       string
	DecodeError      string
	FormatError      string
	InternalError    string
	InfoTitle        string
	InfoDescription  string
	InfoLink         string
	ClassifierLink   string
	Prevention       string
	LanguageSelector string
}

var ui = [numLanguages]Strings{
	English: {
		Title:            "🌾 Rice Leaf Disease Classifier",
		Description:      "Upload an image of a rice leaf and let the model classify it.",
		UploadTab:        "📂 Upload Image",
		WebcamTab:        "📸 Webcam",
		UploadHint:       "Upload a leaf image",
		WebcamHint:       "Take a photo of the rice leaf",
		Submit:           "Classify",
		Result:           "🧠 Prediction:",
		Confidence:       "Confidence:",
		DecodeError:      "The file could not be read as an image. Please upload a JPG or PNG photo.",
		FormatError:      "Only JPG, JPEG and PNG files are supported.",
		InternalError:    "Something went wrong while classifying the image.",
		InfoTitle:        "🌾 Rice Leaf Disease Information",
		InfoDescription:  "Learn more about the diseases and how to prevent or control them.",
		InfoLink:         "Disease information",
		ClassifierLink:   "Classifier",
		Prevention:       "Prevention & Control Measures:",
		LanguageSelector: "🌐 Language / Bahasa",
	},
	Indonesian: {
		Title:            "🌾 Klasifikasi Penyakit Daun Padi",
		Description:      "Unggah gambar daun padi dan biarkan model mengklasifikasikannya.",
		UploadTab:        "📂 Unggah gambar",
		WebcamTab:        "📸 Webcam",
		UploadHint:       "Unggah gambar daun padi",
		WebcamHint:       "Ambil gambar daun padi",
		Submit:           "Klasifikasi",
		Result:           "🧠 Hasil Prediksi:",
		Confidence:       "Tingkat keyakinan:",
		DecodeError:      "Berkas tidak dapat dibaca sebagai gambar. Silakan unggah foto JPG atau PNG.",
		FormatError:      "Hanya berkas JPG, JPEG, dan PNG yang didukung.",
		InternalError:    "Terjadi kesalahan saat mengklasifikasikan gambar.",
		InfoTitle:        "🌾 Informasi Penyakit Daun Padi",
		InfoDescription:  "Pelajari lebih lanjut tentang penyakit dan cara mencegah atau mengendalikannya.",
		InfoLink:         "Informasi penyakit",
		ClassifierLink:   "Klasifikasi",
		Prevention:       "Langkah Pencegahan & Pengendalian:",
		LanguageSelector: "🌐 Language / Bahasa",
	},
}

// UI returns the page strings for lang.
func UI(lang Language) (Strings, error) {
	if !lang.valid() {
		return Strings{}, errors.Wrapf(ErrUnknownLanguage, "%d", int(lang))
	}
	s := ui[lang]
	s.Language = lang.String()
	return s, nil
}

// FormatConfidence renders a probability as a percentage with two decimals,
// e.g. 0.875 -> "87.50%".
func FormatConfidence(p float32) string {
	return fmt.Sprintf("%.2f%%", float64(p)*100)
}
