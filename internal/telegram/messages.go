package telegram

import (
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
)

type messages struct {
	help           string
	sendPhoto      string
	langUsage      string
	langSet        string
	unknownCommand string
	unreadable     string
	failed         string
}

var chatText = map[labels.Language]messages{
	labels.English: {
		help: `🌾 Send me a photo of a rice leaf and I will tell you which disease it shows.

Commands:
/lang en|id  switch language
/help  this message`,
		sendPhoto:      "📸 Please send a photo of a rice leaf.",
		langUsage:      "Usage: /lang en or /lang id",
		langSet:        "🌐 Language set to English.",
		unknownCommand: "❓ Unknown command. Use /help.",
		unreadable:     "⚠️ The photo could not be read. Please send a JPG or PNG image.",
		failed:         "⚠️ Something went wrong while classifying the photo. Please try again.",
	},
	labels.Indonesian: {
		help: `🌾 Kirim foto daun padi dan saya akan memberi tahu penyakitnya.

Perintah:
/lang en|id  ganti bahasa
/help  pesan ini`,
		sendPhoto:      "📸 Silakan kirim foto daun padi.",
		langUsage:      "Penggunaan: /lang en atau /lang id",
		langSet:        "🌐 Bahasa diatur ke Bahasa Indonesia.",
		unknownCommand: "❓ Perintah tidak dikenal. Gunakan /help.",
		unreadable:     "⚠️ Foto tidak dapat dibaca. Silakan kirim gambar JPG atau PNG.",
		failed:         "⚠️ Terjadi kesalahan saat mengklasifikasikan foto. Silakan coba lagi.",
	},
}

func text(lang labels.Language) messages {
	if m, ok := chatText[lang]; ok {
		return m
	}
	return chatText[labels.English]
}
