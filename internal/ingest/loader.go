// Package ingest loads the provisioned datasets as documents and splits them
// into chunks for indexing.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/domain"
)

// LoadCSV loads one document per data row. Each document lists the row as
// "header: value" lines.
func LoadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var docs []domain.Document
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		lines := make([]string, 0, len(header))
		for i, h := range header {
			v := ""
			if i < len(record) {
				v = record[i]
			}
			lines = append(lines, strings.TrimSpace(h)+": "+strings.TrimSpace(v))
		}
		docs = append(docs, domain.Document{
			Content:  strings.Join(lines, "\n"),
			Metadata: map[string]any{"source": path, "row": row},
		})
	}
	return docs, nil
}

// LoadPDF loads one document per page with extractable text.
func LoadPDF(path string) ([]domain.Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	var docs []domain.Document
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", n, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Content:  text,
			Metadata: map[string]any{"source": path, "page": n},
		})
	}
	return docs, nil
}

// Sources names the files to load. Empty paths are skipped.
type Sources struct {
	PDF string
	CSV string
}

// Load loads every configured source. Documents from sources that loaded are
// returned together with the joined errors of those that did not.
func Load(src Sources) ([]domain.Document, error) {
	var docs []domain.Document
	var errs []error

	if src.PDF != "" {
		d, err := LoadPDF(src.PDF)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.PDF, err))
		} else {
			log.Info().Str("source", src.PDF).Int("documents", len(d)).Msg("loaded pdf")
			docs = append(docs, d...)
		}
	}
	if src.CSV != "" {
		d, err := LoadCSV(src.CSV)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.CSV, err))
		} else {
			log.Info().Str("source", src.CSV).Int("documents", len(d)).Msg("loaded csv")
			docs = append(docs, d...)
		}
	}
	return docs, errors.Join(errs...)
}
