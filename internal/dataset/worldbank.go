// Package dataset provisions the files the retrieval index is built from.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// Missing marks an indicator with no value for a country and year.
const Missing = "-"

// Indicator is a World Bank indicator and the column it is saved under.
type Indicator struct {
	Code   string
	Column string
}

// DefaultIndicators are the indicators saved to world_data.csv.
var DefaultIndicators = []Indicator{
	{Code: "SI.POV.DDAY", Column: "Poverty headcount ratio at $2.15 a day (2017 PPP) (% of population)"},
	{Code: "IT.NET.USER.ZS", Column: "Individuals using the Internet (% of population)"},
	{Code: "SL.UEM.TOTL.ZS", Column: "Unemployment, total (% of total labor force) (modeled ILO estimate)"},
}

// Row is one merged (country, year) observation. Values are indexed like
// the indicators they were fetched for.
type Row struct {
	Country string
	Year    int
	Values  []string
}

// WorldBank fetches indicators from the World Bank API v2.
type WorldBank struct {
	baseURL    string
	countries  []string
	startYear  int
	endYear    int
	indicators []Indicator
	httpClient *http.Client
}

// NewWorldBank creates a client for Brazil and the world aggregate, 1981-2024.
func NewWorldBank(baseURL string) *WorldBank {
	return &WorldBank{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		countries:  []string{"BR", "1W"},
		startYear:  1981,
		endYear:    2024,
		indicators: DefaultIndicators,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch downloads every indicator concurrently and outer-merges them on
// (country, year). Rows are ordered by country, then by year descending.
func (w *WorldBank) Fetch(ctx context.Context) ([]Row, error) {
	results := make([]map[rowKey]string, len(w.indicators))

	g, gctx := errgroup.WithContext(ctx)
	for i, ind := range w.indicators {
		g.Go(func() error {
			values, err := w.fetchIndicator(gctx, ind.Code)
			if err != nil {
				return fmt.Errorf("indicator %s: %w", ind.Code, err)
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeIndicators(results), nil
}

// SaveCSV fetches the indicators and writes them to path.
func (w *WorldBank) SaveCSV(ctx context.Context, path string) error {
	rows, err := w.Fetch(ctx)
	if err != nil {
		return err
	}

	return writeAtomic(path, func(f io.Writer) error {
		return WriteCSV(f, w.indicators, rows)
	})
}

// WriteCSV writes rows with a country,year header followed by the
// indicator columns.
func WriteCSV(out io.Writer, indicators []Indicator, rows []Row) error {
	cw := csv.NewWriter(out)
	header := []string{"country", "year"}
	for _, ind := range indicators {
		header = append(header, ind.Column)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := append([]string{r.Country, strconv.Itoa(r.Year)}, r.Values...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type rowKey struct {
	country string
	year    int
}

func (w *WorldBank) fetchIndicator(ctx context.Context, code string) (map[rowKey]string, error) {
	values := make(map[rowKey]string)
	for page, pages := 1, 1; page <= pages; page++ {
		body, err := w.get(ctx, code, page)
		if err != nil {
			return nil, err
		}

		meta := gjson.GetBytes(body, "0")
		if msg := meta.Get("message.0.value"); msg.Exists() {
			return nil, fmt.Errorf("world bank api: %s", msg.String())
		}
		pages = int(meta.Get("pages").Int())

		gjson.GetBytes(body, "1").ForEach(func(_, obs gjson.Result) bool {
			year, err := strconv.Atoi(obs.Get("date").String())
			if err != nil {
				return true
			}
			key := rowKey{country: obs.Get("country.value").String(), year: year}
			if v := obs.Get("value"); v.Type == gjson.Number {
				values[key] = strconv.FormatFloat(v.Float(), 'f', -1, 64)
			} else {
				values[key] = Missing
			}
			return true
		})
	}

	log.Debug().Str("indicator", code).Int("observations", len(values)).Msg("fetched world bank indicator")
	return values, nil
}

func (w *WorldBank) get(ctx context.Context, code string, page int) ([]byte, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("date", fmt.Sprintf("%d:%d", w.startYear, w.endYear))
	q.Set("per_page", "1000")
	q.Set("page", strconv.Itoa(page))
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s", w.baseURL, strings.Join(w.countries, ";"), code, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("world bank api returned %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("world bank api returned invalid JSON")
	}
	return body, nil
}

func mergeIndicators(results []map[rowKey]string) []Row {
	keys := make(map[rowKey]struct{})
	for _, values := range results {
		for k := range values {
			keys[k] = struct{}{}
		}
	}

	rows := make([]Row, 0, len(keys))
	for k := range keys {
		row := Row{Country: k.country, Year: k.year, Values: make([]string, len(results))}
		for i, values := range results {
			if v, ok := values[k]; ok {
				row.Values[i] = v
			} else {
				row.Values[i] = Missing
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Country != rows[j].Country {
			return rows[i].Country < rows[j].Country
		}
		return rows[i].Year > rows[j].Year
	})
	return rows
}

// writeAtomic writes through a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
