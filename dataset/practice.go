package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// 練習用の追加データセット。学生データとは別の CSV として data/raw に並べる
const (
	EmailSpamFile     = "email_spam.csv"
	SalesForecastFile = "sales_forecast.csv"
)

// EmailColumns is the header of the email spam CSV.
var EmailColumns = []string{
	"email_id", "email_length", "num_links", "num_images",
	"caps_ratio", "exclamation_marks", "spam_words", "is_spam",
}

// SalesColumns is the header of the sales forecast CSV.
var SalesColumns = []string{
	"month", "seasonal_factor", "marketing_spend", "competitor_price", "economic_index", "sales",
}

// EmailRecord is one synthetic email for binary classification practice.
type EmailRecord struct {
	EmailID          int     `json:"email_id"`
	EmailLength      int     `json:"email_length"`
	NumLinks         int     `json:"num_links"`
	NumImages        int     `json:"num_images"`
	CapsRatio        float64 `json:"caps_ratio"`
	ExclamationMarks int     `json:"exclamation_marks"`
	SpamWords        int     `json:"spam_words"`
	IsSpam           bool    `json:"is_spam"`
}

// SalesRecord is one month of a synthetic sales series.
type SalesRecord struct {
	Month           int     `json:"month"`
	SeasonalFactor  float64 `json:"seasonal_factor"`
	MarketingSpend  float64 `json:"marketing_spend"`
	CompetitorPrice float64 `json:"competitor_price"`
	EconomicIndex   float64 `json:"economic_index"`
	Sales           float64 `json:"sales"`
}

// WriteEmailCSV writes the header and one row per email. is_spam is 0 or 1.
func WriteEmailCSV(w io.Writer, records []EmailRecord) error {
	return writeRows(w, EmailColumns, len(records), func(i int, row []string) {
		r := records[i]
		spam := 0
		if r.IsSpam {
			spam = 1
		}
		row[0] = strconv.Itoa(r.EmailID)
		row[1] = strconv.Itoa(r.EmailLength)
		row[2] = strconv.Itoa(r.NumLinks)
		row[3] = strconv.Itoa(r.NumImages)
		row[4] = formatFloat(r.CapsRatio)
		row[5] = strconv.Itoa(r.ExclamationMarks)
		row[6] = strconv.Itoa(r.SpamWords)
		row[7] = strconv.Itoa(spam)
	})
}

// WriteSalesCSV writes the header and one row per month.
func WriteSalesCSV(w io.Writer, records []SalesRecord) error {
	return writeRows(w, SalesColumns, len(records), func(i int, row []string) {
		r := records[i]
		row[0] = strconv.Itoa(r.Month)
		row[1] = formatFloat(r.SeasonalFactor)
		row[2] = formatFloat(r.MarketingSpend)
		row[3] = formatFloat(r.CompetitorPrice)
		row[4] = formatFloat(r.EconomicIndex)
		row[5] = formatFloat(r.Sales)
	})
}

func writeRows(w io.Writer, header []string, n int, fill func(i int, row []string)) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	row := make([]string, len(header))
	for i := 0; i < n; i++ {
		fill(i, row)
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write csv row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// SaveEmailCSV writes emails to path, creating parent directories.
func SaveEmailCSV(path string, records []EmailRecord) error {
	return saveFile(path, func(w io.Writer) error { return WriteEmailCSV(w, records) })
}

// SaveSalesCSV writes months to path, creating parent directories.
func SaveSalesCSV(path string, records []SalesRecord) error {
	return saveFile(path, func(w io.Writer) error { return WriteSalesCSV(w, records) })
}

func saveFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
