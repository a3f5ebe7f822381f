package exchange

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"market-sync/core/cache"
	"market-sync/core/idgen"
	"market-sync/core/reconcile"
	"market-sync/core/storage"
	"market-sync/feature/exchange/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"
)

// DefaultSourceURL is the ISO 20022 registry's published MIC list.
const DefaultSourceURL = "https://www.iso20022.org/sites/default/files/ISO10383_MIC/ISO10383_MIC.csv"

const snapshotSource = "iso10383"

// Importer downloads the ISO 10383 registry CSV and reconciles it into the
// exchange table.
type Importer struct {
	db        *gorm.DB
	alloc     *idgen.Allocator
	cache     *cache.Cache[*models.Exchange]
	archive   *storage.Archive
	http      *resty.Client
	log       *zap.Logger
	sourceURL string
}

// NewImporter creates an importer. The archive may be nil; snapshots are then
// skipped.
func NewImporter(db *gorm.DB, alloc *idgen.Allocator, c *cache.Cache[*models.Exchange], archive *storage.Archive, log *zap.Logger) *Importer {
	return &Importer{
		db:        db,
		alloc:     alloc,
		cache:     c,
		archive:   archive,
		http:      resty.New().SetTimeout(60 * time.Second),
		log:       log,
		sourceURL: DefaultSourceURL,
	}
}

// WithSourceURL overrides the registry URL, used by tests.
func (i *Importer) WithSourceURL(url string) *Importer {
	i.sourceURL = url
	return i
}

// Run downloads the registry, archives the raw snapshot and reconciles every
// row into the exchange table.
func (i *Importer) Run(ctx context.Context) (reconcile.Result, error) {
	data, err := i.Download(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}
	return i.ImportData(ctx, data)
}

// Download fetches the raw registry CSV.
func (i *Importer) Download(ctx context.Context) ([]byte, error) {
	resp, err := i.http.R().SetContext(ctx).Get(i.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("download registry: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download registry: unexpected status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// ImportData archives and reconciles an already fetched registry CSV.
func (i *Importer) ImportData(ctx context.Context, data []byte) (reconcile.Result, error) {
	if i.archive != nil {
		key, err := i.archive.StoreSnapshot(ctx, snapshotSource, "ISO10383_MIC.csv", time.Now(), data)
		if err != nil {
			// The import itself is still valid without the audit copy.
			i.log.Warn("snapshot archive failed", zap.Error(err))
		} else {
			i.log.Debug("archived registry snapshot", zap.String("object", key))
		}
	}

	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.Run(ctx, i.db, i.alloc, NewSpec(i.cache), records, i.log)
}

// Parse reads the latin-1 encoded registry CSV and returns one Record per
// row, addressing columns by header name so column reordering in future
// registry publications does not break the import.
func Parse(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read registry header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = idx
	}
	if _, ok := cols["MIC"]; !ok {
		return nil, fmt.Errorf("registry header has no MIC column")
	}

	field := func(row []string, name string) *string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return nil
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			return nil
		}
		return &v
	}
	dateOf := func(row []string, name string) *time.Time {
		s := field(row, name)
		if s == nil {
			return nil
		}
		return parseDate(*s)
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read registry row: %w", err)
		}
		mic := field(row, "MIC")
		rec := models.Record{
			OperatingMic:       field(row, "OPERATING MIC"),
			Segment:            field(row, "OPRT/SGMT"),
			MarketName:         field(row, "MARKET NAME-INSTITUTION DESCRIPTION"),
			LegalEntityName:    field(row, "LEGAL ENTITY NAME"),
			Lei:                field(row, "LEI"),
			MarketCategoryCode: field(row, "MARKET CATEGORY CODE"),
			Acronym:            field(row, "ACRONYM"),
			CountryCode:        field(row, "ISO COUNTRY CODE (ISO 3166)"),
			City:               field(row, "CITY"),
			Website:            field(row, "WEBSITE"),
			Status:             field(row, "STATUS"),
			CreationDate:       dateOf(row, "CREATION DATE"),
			LastUpdateDate:     dateOf(row, "LAST UPDATE DATE"),
			LastValidationDate: dateOf(row, "LAST VALIDATION DATE"),
			ExpiryDate:         dateOf(row, "EXPIRY DATE"),
			Comments:           field(row, "COMMENTS"),
		}
		if mic != nil {
			rec.Mic = *mic
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseDate accepts the registry's two historical date spellings. Anything
// else is treated as absent.
func parseDate(s string) *time.Time {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
