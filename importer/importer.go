// Package importer loads demo data sets from CSV files into the item
// store. Sources may be local paths or s3:// URIs.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/roamnz/travelgo/model"
	"github.com/roamnz/travelgo/store"
)

// Kind selects the data set a CSV file belongs to.
type Kind string

const (
	KindBookings       Kind = "bookings"
	KindVehicles       Kind = "vehicles"
	KindAccommodations Kind = "accommodations"
)

// schema drives per-kind row conversion. Key columns stay strings even
// when they parse as numbers; list columns split on commas.
type schema struct {
	table    string
	required []string
	keys     []string
	lists    []string
}

var schemas = map[Kind]schema{
	KindBookings: {
		table:    "customer_bookings",
		required: []string{"contact_phone", "booking_ref"},
		keys:     []string{"contact_phone", "booking_ref", "customer_id", "vehicle_reg", "customer_booking_ref"},
		lists:    []string{"itinerary"},
	},
	KindVehicles: {
		table:    "vehicle_information",
		required: []string{"registration"},
		keys:     []string{"registration"},
	},
	KindAccommodations: {
		table:    "accommodation_options",
		required: []string{"id"},
		keys:     []string{"id"},
		lists:    []string{"amenities"},
	},
}

// Result summarizes an import run.
type Result struct {
	Imported int
	Skipped  int
}

// S3Client is the S3 surface needed to download s3:// sources.
type S3Client interface {
	manager.DownloadAPIClient
}

// Importer writes CSV rows into the item store.
type Importer struct {
	store  store.Store
	s3     S3Client
	logger *slog.Logger
	tables map[Kind]string
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger overrides the importer logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// WithS3Client enables s3:// sources.
func WithS3Client(client S3Client) Option {
	return func(i *Importer) { i.s3 = client }
}

// WithTable overrides the destination table for a kind.
func WithTable(kind Kind, table string) Option {
	return func(i *Importer) { i.tables[kind] = table }
}

// New creates an Importer over the given store.
func New(s store.Store, optFns ...Option) *Importer {
	i := &Importer{
		store:  s,
		logger: slog.Default(),
		tables: make(map[Kind]string),
	}
	for kind, sc := range schemas {
		i.tables[kind] = sc.table
	}
	for _, fn := range optFns {
		fn(i)
	}
	return i
}

// ImportCSV loads one CSV file into the table for its kind. Rows
// missing required key columns are skipped and counted, not fatal.
func (i *Importer) ImportCSV(ctx context.Context, kind Kind, source string) (*Result, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("importer: unknown kind %q", kind)
	}

	r, err := i.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	result, err := i.importRows(ctx, i.tables[kind], sc, r)
	if err != nil {
		return nil, err
	}
	i.logger.InfoContext(ctx, "import completed",
		"kind", string(kind),
		"source", source,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (i *Importer) importRows(ctx context.Context, table string, sc schema, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}

	result := &Result{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read row: %w", err)
		}

		item := rowItem(header, row, sc)
		if missing := missingRequired(item, sc.required); len(missing) > 0 {
			i.logger.WarnContext(ctx, "skipping row with missing keys",
				"line", line,
				"missing", missing,
			)
			result.Skipped++
			continue
		}

		if err := i.store.Put(ctx, table, item); err != nil {
			return nil, fmt.Errorf("importer: put row %d: %w", line, err)
		}
		result.Imported++
	}
	return result, nil
}

// rowItem converts one CSV row. Empty cells are omitted, list columns
// split on commas, key columns stay strings, and anything else that
// parses as a number becomes an exact decimal. Booleans are the literal
// "true"/"false" only.
func rowItem(header, row []string, sc schema) model.Item {
	item := model.Item{}
	for col, name := range header {
		if col >= len(row) {
			break
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}

		switch {
		case contains(sc.lists, name):
			item[name] = splitList(value)
		case contains(sc.keys, name):
			item[name] = value
		case strings.EqualFold(value, "true"):
			item[name] = true
		case strings.EqualFold(value, "false"):
			item[name] = false
		default:
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				item[name] = model.Number(value)
			} else {
				item[name] = value
			}
		}
	}
	return item
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func missingRequired(item model.Item, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := item[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// open resolves a source to a reader. s3://bucket/key sources download
// through the transfer manager; everything else is a local path.
func (i *Importer) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "s3://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("importer: open %s: %w", source, err)
		}
		return f, nil
	}

	if i.s3 == nil {
		return nil, fmt.Errorf("importer: s3 source %s requires an s3 client", source)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(source, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("importer: invalid s3 uri %s", source)
	}

	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(i.s3)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("importer: download %s: %w", source, err)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}
