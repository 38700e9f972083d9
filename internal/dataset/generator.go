package dataset

import (
	"fmt"
	"math/rand/v2"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/cleaning"
)

// Vocabulary is the set of values synthetic transactions draw from.
type Vocabulary struct {
	Clients     []string
	Regions     []string
	Products    []string
	Categories  []string
	ClientTypes []string
	Industries  []string
}

// BasicVocabulary reproduces the plain sales workbook.
func BasicVocabulary() Vocabulary {
	return Vocabulary{
		Clients:    numbered("Клиент", 1, 20),
		Regions:    []string{"Ярославль", "Кострома", "Рыбинск", "Москва"},
		Products:   []string{"Продукт A", "Продукт B", "Продукт C", "Продукт D"},
		Categories: []string{"Категория 1", "Категория 2", "Категория 3"},
	}
}

// ExtendedVocabulary adds client types and industries.
func ExtendedVocabulary() Vocabulary {
	return Vocabulary{
		Clients:     numbered("Клиент", 22, 49),
		Regions:     []string{"Брагино", "Фрунзе", "Заволга", "Перекоп"},
		Products:    []string{"Продукт Д", "Продукт Е", "Продукт Ж", "Продукт М"},
		Categories:  []string{"Категория 4", "Категория 5", "Категория 6"},
		ClientTypes: []string{"Физическое лицо", "Юр.лицо", "ИП", "Гос.предприятие"},
		Industries:  []string{"IT", "Медицина", "Лёгкая промышленность", "Тяжёлая промышленность", "Образование"},
	}
}

func numbered(prefix string, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%s %d", prefix, i))
	}
	return out
}

type GenerateOptions struct {
	Rows  int
	Days  int
	Today civil.Date
	Vocab Vocabulary
}

// DefaultGenerateOptions yields 1000 rows over the last 365 days.
func DefaultGenerateOptions(today civil.Date) GenerateOptions {
	return GenerateOptions{Rows: 1000, Days: 365, Today: today, Vocab: BasicVocabulary()}
}

var (
	minAmount = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(10000)
)

// Generate builds a synthetic transaction table. Client type and industry are fixed per
// client and only emitted when the vocabulary has them.
func Generate(schema models.Schema, opts GenerateOptions, rng *rand.Rand) *models.Table {
	v := opts.Vocab
	extended := len(v.ClientTypes) > 0 && len(v.Industries) > 0

	columns := schema.BaseColumns()
	var profile map[string][2]string
	if extended {
		columns = append(columns, schema.ClientType, schema.Industry)
		profile = make(map[string][2]string, len(v.Clients))
		for _, c := range v.Clients {
			profile[c] = [2]string{pick(rng, v.ClientTypes), pick(rng, v.Industries)}
		}
	}

	table := &models.Table{Schema: schema, Columns: columns, Records: make([]models.Record, 0, opts.Rows)}
	span := maxAmount.Sub(minAmount)
	for i := 0; i < opts.Rows; i++ {
		date := opts.Today.AddDays(-rng.IntN(opts.Days + 1))
		rec := models.Record{
			SaleDate: models.NewNullDate(date),
			Client:   pick(rng, v.Clients),
			Region:   pick(rng, v.Regions),
			Product:  pick(rng, v.Products),
			Category: pick(rng, v.Categories),
			Quantity: int64(1 + rng.IntN(100)),
			Amount:   minAmount.Add(span.Mul(decimal.NewFromFloat(rng.Float64()))).Round(2),
			Features: cleaning.DeriveFeatures(date),
		}
		if extended {
			rec.ClientType = profile[rec.Client][0]
			rec.Industry = profile[rec.Client][1]
		}
		table.Records = append(table.Records, rec)
	}
	return table
}

func pick(rng *rand.Rand, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rng.IntN(len(values))]
}
