package documents

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
)

// fileToken strips accents and keeps letters and digits, joining words with underscores.
func fileToken(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, value)
	if err != nil {
		plain = value
	}

	words := strings.FieldsFunc(strings.ToUpper(plain), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(words) == 0 {
		return "SEM_NOME"
	}
	return strings.Join(words, "_")
}

func SlipFilename(company metadata.Company, employee string, at time.Time) string {
	return "EPI_" + fileToken(company.String()) + "_" + fileToken(employee) + "_" + at.Format("20060102_150405") + ".pdf"
}

func HistoryFilename(employee string, at time.Time) string {
	return "HISTORICO_" + fileToken(employee) + "_" + at.Format("20060102") + ".pdf"
}
