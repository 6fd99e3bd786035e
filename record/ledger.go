package record

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UsageRecord is one ledger entry. Cost is in nano-dollars: token counts
// multiplied by the model's dollars-per-1B-token prices.
type UsageRecord struct {
	ID           string    `json:"id"`
	Time         time.Time `json:"time"`
	Model        string    `json:"model"`
	APIName      string    `json:"api_name"`
	Provider     string    `json:"provider"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Cost         uint64    `json:"cost_nanodollars"`
}

// UsageSummary aggregates records per model.
type UsageSummary struct {
	Model        string
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	Cost         uint64
}

// Dollars converts the nano-dollar cost to dollars for display.
func (s UsageSummary) Dollars() float64 {
	return float64(s.Cost) / 1e9
}

// Cost computes tokens_in * price_in_per_1B + tokens_out * price_out_per_1B.
func Cost(m llm.Model, usage llm.Usage) uint64 {
	return uint64(max(usage.InputTokens, 0))*m.DollarsPer1BInputTokens +
		uint64(max(usage.OutputTokens, 0))*m.DollarsPer1BOutputTokens
}

// NewUsageRecord builds a ledger entry for one successful call.
func NewUsageRecord(m llm.Model, usage llm.Usage) UsageRecord {
	return UsageRecord{
		ID:           uuid.NewString(),
		Time:         time.Now().UTC(),
		Model:        m.Name,
		APIName:      m.APIName,
		Provider:     m.Provider.String(),
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Cost:         Cost(m, usage),
	}
}

// Ledger stores usage records.
type Ledger interface {
	Append(ctx context.Context, rec UsageRecord) error
	Summarize(ctx context.Context) ([]UsageSummary, error)
	Close() error
}

// OpenLedger opens the ledger at path. Paths ending in .db, .sqlite or
// .sqlite3 use a SQLite database; anything else is a JSON-lines file.
func OpenLedger(path string, logger zerolog.Logger) (Ledger, error) {
	path = expandPath(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLiteLedger(path, logger)
	default:
		return &jsonlLedger{path: path}, nil
	}
}

type jsonlLedger struct {
	path string
}

func (l *jsonlLedger) Append(_ context.Context, rec UsageRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	return appendFile(l.path, append(line, '\n'))
}

func (l *jsonlLedger) Summarize(_ context.Context) ([]UsageSummary, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	byModel := make(map[string]*UsageSummary)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec UsageRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse ledger line: %w", err)
		}
		s, ok := byModel[rec.Model]
		if !ok {
			s = &UsageSummary{Model: rec.Model}
			byModel[rec.Model] = s
		}
		s.Calls++
		s.InputTokens += rec.InputTokens
		s.OutputTokens += rec.OutputTokens
		s.Cost += rec.Cost
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	result := make([]UsageSummary, 0, len(byModel))
	for _, s := range byModel {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Model < result[j].Model })
	return result, nil
}

func (l *jsonlLedger) Close() error { return nil }

// Ledgers keeps one open Ledger per path for the lifetime of a client.
type Ledgers struct {
	mu     sync.Mutex
	open   map[string]Ledger
	logger zerolog.Logger
}

// NewLedgers creates an empty ledger cache.
func NewLedgers(logger zerolog.Logger) *Ledgers {
	return &Ledgers{
		open:   make(map[string]Ledger),
		logger: logger.With().Str("component", "ledgers").Logger(),
	}
}

// Get returns the ledger for path, opening it on first use.
func (l *Ledgers) Get(path string) (Ledger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ledger, ok := l.open[path]; ok {
		return ledger, nil
	}
	ledger, err := OpenLedger(path, l.logger)
	if err != nil {
		return nil, err
	}
	l.open[path] = ledger
	return ledger, nil
}

// Close closes every ledger opened through the cache.
func (l *Ledgers) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for path, ledger := range l.open {
		if err := ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger %s: %w", path, err))
		}
		delete(l.open, path)
	}
	return errors.Join(errs...)
}
