package generator

import (
	"math"
	"math/rand/v2"
	"path/filepath"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
)

// 練習用データセットのストリーム。シナリオ(1..6)や shuffle/missing と重ならない
const (
	emailStream uint64 = 2 << 32
	salesStream uint64 = 3 << 32
)

// PracticeConfig sizes the companion datasets written next to the student
// data: an email spam classification set and a monthly sales series.
type PracticeConfig struct {
	Seed         uint64
	EmailSamples int
	SalesMonths  int
}

// DefaultPracticeConfig returns 2000 emails and 60 months.
func DefaultPracticeConfig(seed uint64) PracticeConfig {
	return PracticeConfig{Seed: seed, EmailSamples: 2000, SalesMonths: 60}
}

func (c PracticeConfig) Validate() error {
	if c.EmailSamples <= 0 {
		return errors.NewConfigurationError("practice.email_samples", "must be positive", c.EmailSamples)
	}
	if c.SalesMonths <= 0 {
		return errors.NewConfigurationError("practice.sales_months", "must be positive", c.SalesMonths)
	}
	return nil
}

// emailClass は spam / ham それぞれの特徴量分布
type emailClass struct {
	length                             distuv.Exponential
	links, images, exclamations, words distuv.Poisson
	caps                               distuv.Beta
}

func newEmailClass(src rand.Source, meanLength, links, images, exclamations, words, capsA, capsB float64) emailClass {
	return emailClass{
		length:       distuv.Exponential{Rate: 1 / meanLength, Src: src},
		links:        distuv.Poisson{Lambda: links, Src: src},
		images:       distuv.Poisson{Lambda: images, Src: src},
		exclamations: distuv.Poisson{Lambda: exclamations, Src: src},
		words:        distuv.Poisson{Lambda: words, Src: src},
		caps:         distuv.Beta{Alpha: capsA, Beta: capsB, Src: src},
	}
}

func clipInt(v, lo, hi float64) int {
	return int(errors.ClipValue(v, lo, hi))
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// EmailSpam generates n emails, about 30% spam. Spam is shorter and has more
// links, images, capitals, exclamation marks and spam words.
func EmailSpam(seed uint64, n int) ([]dataset.EmailRecord, error) {
	if n <= 0 {
		return nil, errors.NewConfigurationError("practice.email_samples", "must be positive", n)
	}
	src := rand.NewPCG(seed, emailStream)
	label := distuv.Bernoulli{P: 0.3, Src: src}
	spam := newEmailClass(src, 200, 5, 3, 3, 8, 2, 3)
	ham := newEmailClass(src, 500, 1, 0.5, 0.3, 1, 1, 9)

	out := make([]dataset.EmailRecord, n)
	for i := range out {
		isSpam := label.Rand() == 1
		c := ham
		if isSpam {
			c = spam
		}
		out[i] = dataset.EmailRecord{
			EmailID:          i + 1,
			EmailLength:      clipInt(c.length.Rand(), 10, 2000),
			NumLinks:         clipInt(c.links.Rand(), 0, 20),
			NumImages:        clipInt(c.images.Rand(), 0, 10),
			CapsRatio:        round(c.caps.Rand(), 3),
			ExclamationMarks: clipInt(c.exclamations.Rand(), 0, 15),
			SpamWords:        clipInt(c.words.Rand(), 0, 20),
			IsSpam:           isSpam,
		}
	}
	return out, nil
}

// SalesForecast generates a monthly series with a growing trend, a 12-month
// seasonal cycle, marketing and competitor effects and a random-walk
// economic index. Sales never drop below 1000.
//
//	sales = 10000 + 50·month + 10000·(seasonal-1) + 0.5·marketing
//	        - 100·(competitor-50) + 50·(economic-100) + N(0, 1000)
func SalesForecast(seed uint64, months int) ([]dataset.SalesRecord, error) {
	if months <= 0 {
		return nil, errors.NewConfigurationError("practice.sales_months", "must be positive", months)
	}
	src := rand.NewPCG(seed, salesStream)
	marketing := distuv.Gamma{Alpha: 2, Beta: 1.0 / 1000, Src: src}
	competitor := distuv.Normal{Mu: 50, Sigma: 10, Src: src}
	walk := distuv.Normal{Mu: 0, Sigma: 2, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: 1000, Src: src}

	const base = 10000.0
	economic := 100.0
	out := make([]dataset.SalesRecord, months)
	for i := range out {
		month := i + 1
		seasonal := 1 + 0.3*math.Sin(2*math.Pi*float64(month)/12)
		spend := marketing.Rand()
		price := competitor.Rand()
		economic += walk.Rand()

		sales := base + 50*float64(month) +
			base*(seasonal-1) +
			0.5*spend -
			100*(price-50) +
			50*(economic-100) +
			noise.Rand()

		out[i] = dataset.SalesRecord{
			Month:           month,
			SeasonalFactor:  round(seasonal, 2),
			MarketingSpend:  round(spend, 2),
			CompetitorPrice: round(price, 2),
			EconomicIndex:   round(economic, 2),
			Sales:           round(math.Max(sales, 1000), 2),
		}
	}
	return out, nil
}

// PracticeFiles are the CSV paths written by WritePractice.
type PracticeFiles struct {
	EmailSpam     string `json:"email_spam"`
	SalesForecast string `json:"sales_forecast"`
}

// WritePractice generates both companion datasets and saves them under dir.
func WritePractice(cfg PracticeConfig, dir string) (PracticeFiles, error) {
	if err := cfg.Validate(); err != nil {
		return PracticeFiles{}, err
	}
	emails, err := EmailSpam(cfg.Seed, cfg.EmailSamples)
	if err != nil {
		return PracticeFiles{}, err
	}
	sales, err := SalesForecast(cfg.Seed, cfg.SalesMonths)
	if err != nil {
		return PracticeFiles{}, err
	}

	files := PracticeFiles{
		EmailSpam:     filepath.Join(dir, dataset.EmailSpamFile),
		SalesForecast: filepath.Join(dir, dataset.SalesForecastFile),
	}
	if err := dataset.SaveEmailCSV(files.EmailSpam, emails); err != nil {
		return PracticeFiles{}, err
	}
	if err := dataset.SaveSalesCSV(files.SalesForecast, sales); err != nil {
		return PracticeFiles{}, err
	}

	log.GetLoggerWithName("generator").Info("practice datasets generated",
		log.OperationKey, log.OperationGenerate,
		log.RandomSeedKey, cfg.Seed,
		"emails", len(emails),
		"months", len(sales),
		log.PathKey, dir,
	)
	return files, nil
}
