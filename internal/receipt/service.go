package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-fields/internal/batch"
	"github.com/zombor/receipt-fields/internal/extract"
	"github.com/zombor/receipt-fields/internal/fragment"
	"github.com/zombor/receipt-fields/internal/ocr"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// IDGenerator generates unique IDs for receipts and batches
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Options tune how uploads are turned into fields
type Options struct {
	Extract extract.Config
	// MinConfidence is used when a request does not set its own threshold
	MinConfidence float64
	// Workers bounds concurrent OCR calls within a batch
	Workers int
}

// DefaultOptions returns the stock vocabulary, a 0.5 threshold and four workers
func DefaultOptions() Options {
	return Options{
		Extract:       extract.DefaultConfig(),
		MinConfidence: 0.5,
		Workers:       4,
	}
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Service handles receipt operations
type Service struct {
	db          DB
	engine      ocr.Engine
	storage     Storage
	opts        Options
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with a UUID generator and the wall clock
func NewService(db DB, engine ocr.Engine, storage Storage, opts Options) *Service {
	return NewServiceWithDeps(db, engine, storage, opts, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, engine ocr.Engine, storage Storage, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		opts:        opts,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// MinConfidence is the default fragment threshold
func (s *Service) MinConfidence() float64 {
	return s.opts.MinConfidence
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phones produce long names; 50 runes is plenty to recognize a file
	if r := []rune(base); len(r) > 50 {
		base = string(r[:50])
	}
	if base == "" {
		base = "receipt"
	}
	return base + strings.ToLower(ext)
}

// scan is an upload that went through storage and OCR
type scan struct {
	id        string
	upload    Upload
	path      string
	fragments []fragment.Fragment
	err       error
}

// recognize stores the upload and runs OCR on it. The stored file is
// removed again when OCR fails.
func (s *Service) recognize(id string, upload Upload) (*scan, error) {
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.Filename)), upload.Data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	raw, err := s.engine.Recognize(upload.Data, upload.ContentType)
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"filename", upload.Filename,
			"content_type", upload.ContentType,
			"file_size", len(upload.Data),
			"error", err,
		)
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	return &scan{
		id:        id,
		upload:    upload,
		path:      savedPath,
		fragments: fragment.Normalize(raw),
	}, nil
}

func (s *Service) newReceipt(sc *scan, record extract.Record, minConfidence float64, batchID string, now time.Time) *Receipt {
	return &Receipt{
		ID:            sc.id,
		OriginalName:  sc.upload.Filename,
		Filename:      sc.path,
		ContentType:   sc.upload.ContentType,
		BatchID:       batchID,
		MinConfidence: minConfidence,
		Fragments:     sc.fragments,
		Fields:        record,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ProcessReceipt stores an upload, recognizes its fragments, extracts the
// fields from the fragments at or above minConfidence and saves the result.
func (s *Service) ProcessReceipt(upload Upload, minConfidence float64) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	sc, err := s.recognize(id, upload)
	if err != nil {
		return nil, err
	}

	record := extract.Extract(fragment.FilterByConfidence(sc.fragments, minConfidence), s.opts.Extract)
	record.SourceFileName = upload.Filename
	receipt := s.newReceipt(sc, record, minConfidence, "", now)

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(sc.path)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Processed receipt",
		"id", receipt.ID,
		"filename", upload.Filename,
		"fragments", len(sc.fragments),
	)
	return receipt, nil
}

// ExtractFragments runs extraction on fragments recognized elsewhere.
// Nothing is stored.
func (s *Service) ExtractFragments(raw []fragment.Raw, minConfidence float64, sourceFileName string) extract.Record {
	frags := fragment.FilterByConfidence(fragment.Normalize(raw), minConfidence)
	record := extract.Extract(frags, s.opts.Extract)
	record.SourceFileName = sourceFileName
	return record
}

// ProcessBatch recognizes the uploads concurrently, extracts their fields and
// saves them under one batch. Uploads that fail OCR are listed in
// Batch.Failed; the others are kept in upload order.
func (s *Service) ProcessBatch(ctx context.Context, uploads []Upload, minConfidence float64) (*Batch, []*Receipt, error) {
	if len(uploads) == 0 {
		return nil, nil, fmt.Errorf("at least one file is required")
	}

	batchID := s.idGenerator.Generate()
	now := s.timeSource.Now()

	scans := make([]*scan, len(uploads))
	for i := range uploads {
		scans[i] = &scan{id: s.idGenerator.Generate(), upload: uploads[i]}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, sc := range scans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			done, err := s.recognize(sc.id, sc.upload)
			if err != nil {
				sc.err = err
				return nil
			}
			sc.path = done.path
			sc.fragments = done.fragments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(scans)
		return nil, nil, fmt.Errorf("recognizing batch: %w", err)
	}

	b := &Batch{
		ID:         batchID,
		ReceiptIDs: make([]string, 0, len(scans)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ok := make([]*scan, 0, len(scans))
	inputs := make([]batch.Input, 0, len(scans))
	for _, sc := range scans {
		if sc.err != nil {
			b.Failed = append(b.Failed, FailedFile{Filename: sc.upload.Filename, Error: sc.err.Error()})
			continue
		}
		ok = append(ok, sc)
		inputs = append(inputs, batch.Input{
			FileName:  sc.upload.Filename,
			Fragments: fragment.FilterByConfidence(sc.fragments, minConfidence),
		})
	}

	records, err := batch.Run(ctx, inputs, s.opts.Extract, s.opts.Workers)
	if err != nil {
		s.discard(ok)
		return nil, nil, fmt.Errorf("extracting batch: %w", err)
	}

	receipts := make([]*Receipt, 0, len(ok))
	for i, sc := range ok {
		receipt := s.newReceipt(sc, records[i], minConfidence, batchID, now)
		if err := s.db.SaveReceipt(receipt); err != nil {
			s.unsave(receipts)
			s.discard(ok)
			return nil, nil, fmt.Errorf("saving receipt %s to database: %w", sc.upload.Filename, err)
		}
		receipts = append(receipts, receipt)
		b.ReceiptIDs = append(b.ReceiptIDs, receipt.ID)
	}

	if err := s.db.SaveBatch(b); err != nil {
		s.unsave(receipts)
		s.discard(ok)
		return nil, nil, fmt.Errorf("saving batch: %w", err)
	}

	slog.Info("Processed batch",
		"id", b.ID,
		"receipts", len(b.ReceiptIDs),
		"failed", len(b.Failed),
	)
	return b, receipts, nil
}

// discard removes stored files of scans that will not be saved
func (s *Service) discard(scans []*scan) {
	for _, sc := range scans {
		if sc.path == "" {
			continue
		}
		if err := s.storage.Delete(sc.path); err != nil {
			slog.Warn("Failed to delete file", "filename", sc.path, "error", err)
		}
	}
}

// unsave deletes receipts already written for a batch that will not be saved
func (s *Service) unsave(receipts []*Receipt) {
	for _, r := range receipts {
		if err := s.db.DeleteReceipt(r.ID); err != nil {
			slog.Warn("Failed to delete receipt", "id", r.ID, "error", err)
		}
	}
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, oldest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.Before(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt, its file and its batch membership
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if receipt.BatchID != "" {
		if err := s.removeFromBatch(receipt.BatchID, id); err != nil {
			slog.Warn("Failed to update batch", "batch_id", receipt.BatchID, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

func (s *Service) removeFromBatch(batchID, receiptID string) error {
	b, err := s.db.GetBatch(batchID)
	if err != nil {
		return err
	}
	ids := b.ReceiptIDs[:0]
	for _, rid := range b.ReceiptIDs {
		if rid != receiptID {
			ids = append(ids, rid)
		}
	}
	b.ReceiptIDs = ids
	b.UpdatedAt = s.timeSource.Now()
	return s.db.SaveBatch(b)
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// GetReceiptFragmentsCSV lists every fragment of a receipt with its confidence
func (s *Service) GetReceiptFragmentsCSV(id string) ([]byte, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	var buf bytes.Buffer
	if err := batch.WriteFragmentsCSV(&buf, receipt.Fragments); err != nil {
		return nil, fmt.Errorf("writing fragments: %w", err)
	}
	return buf.Bytes(), nil
}

// GetBatch retrieves a batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	b, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return b, nil
}

// GetBatchWithReceipts retrieves a batch with its receipts and their table
func (s *Service) GetBatchWithReceipts(id string) (*Batch, []*Receipt, batch.Table, error) {
	b, err := s.db.GetBatch(id)
	if err != nil {
		return nil, nil, batch.Table{}, fmt.Errorf("getting batch: %w", err)
	}

	receipts := make([]*Receipt, 0, len(b.ReceiptIDs))
	records := make([]extract.Record, 0, len(b.ReceiptIDs))
	for _, receiptID := range b.ReceiptIDs {
		receipt, err := s.db.GetReceipt(receiptID)
		if err != nil {
			return nil, nil, batch.Table{}, fmt.Errorf("getting receipt %s: %w", receiptID, err)
		}
		receipts = append(receipts, receipt)
		records = append(records, receipt.Fields)
	}

	return b, receipts, batch.Aggregate(records), nil
}

// ListBatches returns all batches, oldest first
func (s *Service) ListBatches() ([]*Batch, error) {
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
	return batches, nil
}

// ExportBatch renders a batch table as csv or xlsx and returns the data
// with its content type
func (s *Service) ExportBatch(id, format string) ([]byte, string, error) {
	var write func(*bytes.Buffer, batch.Table) error
	var contentType string
	switch strings.ToLower(format) {
	case "", FormatCSV:
		write = func(buf *bytes.Buffer, t batch.Table) error { return batch.WriteCSV(buf, t) }
		contentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		write = func(buf *bytes.Buffer, t batch.Table) error { return batch.WriteXLSX(buf, t) }
		contentType = xlsxContentType
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	_, _, table, err := s.GetBatchWithReceipts(id)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := write(&buf, table); err != nil {
		return nil, "", fmt.Errorf("exporting batch: %w", err)
	}
	return buf.Bytes(), contentType, nil
}
