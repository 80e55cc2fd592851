package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zombor/receipt-fields/internal/fragment"
)

// maxFormSize handles high-resolution phone photos
const maxFormSize = int64(50 << 20) // 50MB

// maxBatchFormSize bounds multi-file uploads
const maxBatchFormSize = int64(200 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// corsError writes a plain text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes {"error": message}
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// notFoundOr maps ErrNotFound to 404 and everything else to 500
func notFoundOr(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, ErrNotFound) {
		corsError(w, notFound, http.StatusNotFound)
		return
	}
	slog.Error("Request failed", "error", err)
	corsError(w, "Internal server error", http.StatusInternalServerError)
}

// contentTypeFor prefers the part header and falls back to the extension
func contentTypeFor(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".gif":
			contentType = "image/gif"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	// HEIC/HEIF types are kept so the decoder can detect them
	return strings.ToLower(strings.TrimSpace(contentType))
}

// parseMinConfidence reads the optional min_confidence form field
func (s *Server) parseMinConfidence(r *http.Request) (float64, error) {
	v := strings.TrimSpace(r.FormValue("min_confidence"))
	if v == "" {
		return s.service.MinConfidence(), nil
	}
	threshold, err := strconv.ParseFloat(v, 64)
	if err != nil || threshold < 0 || threshold > 1 {
		return 0, fmt.Errorf("min_confidence must be a number between 0 and 1")
	}
	return threshold, nil
}

func readUpload(header *multipart.FileHeader) (Upload, error) {
	if header.Size > maxFormSize {
		return Upload{}, errors.New(tooLargeMessage)
	}
	f, err := header.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("opening %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", header.Filename, err)
	}
	return Upload{
		Filename:    header.Filename,
		Data:        data,
		ContentType: contentTypeFor(header),
	}, nil
}

// handleListReceipts returns a list of all receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if receipts == nil {
		receipts = []*Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleUploadReceipt scans a single receipt
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errorMsg = tooLargeMessage
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	minConfidence, err := s.parseMinConfidence(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	f.Close()

	upload, err := readUpload(header)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := s.service.ProcessReceipt(upload, minConfidence)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(r.PathValue("id"))
	if err != nil {
		notFoundOr(w, err, "Receipt not found")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleGetReceiptFile returns the uploaded file of a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		notFoundOr(w, err, "File not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleGetReceiptFragments returns the recognized fragments as CSV
func (s *Server) handleGetReceiptFragments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.GetReceiptFragmentsCSV(id)
	if err != nil {
		notFoundOr(w, err, "Receipt not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_fragments.csv"`, id))
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		notFoundOr(w, err, "Receipt not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// extractRequest carries fragments recognized by another OCR engine
type extractRequest struct {
	FileName      string         `json:"file_name"`
	MinConfidence *float64       `json:"min_confidence"`
	Fragments     []fragment.Raw `json:"fragments"`
}

// handleExtract extracts fields from posted fragments without storing them
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormSize)).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	minConfidence := s.service.MinConfidence()
	if req.MinConfidence != nil {
		if *req.MinConfidence < 0 || *req.MinConfidence > 1 {
			jsonError(w, "min_confidence must be a number between 0 and 1", http.StatusBadRequest)
			return
		}
		minConfidence = *req.MinConfidence
	}

	record := s.service.ExtractFragments(req.Fragments, minConfidence, req.FileName)
	writeJSON(w, http.StatusOK, record)
}

// handleCreateBatch scans every file of a multi-file upload
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	minConfidence, err := s.parseMinConfidence(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No files were selected. Please choose at least one file to upload.", http.StatusBadRequest)
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, upload)
	}

	b, receipts, err := s.service.ProcessBatch(r.Context(), uploads, minConfidence)
	if err != nil {
		slog.Error("Error processing batch", "files", len(uploads), "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"batch":    b,
		"receipts": receipts,
	})
}

// handleListBatches returns a list of all batches
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches()
	if err != nil {
		slog.Error("Error listing batches", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if batches == nil {
		batches = []*Batch{}
	}
	writeJSON(w, http.StatusOK, batches)
}

// handleGetBatch returns a batch with its receipts and the flattened table
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, receipts, table, err := s.service.GetBatchWithReceipts(r.PathValue("id"))
	if err != nil {
		notFoundOr(w, err, "Batch not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch":      b,
		"receipts":   receipts,
		"rows":       table.Rows,
		"vat_totals": table.VATTotals,
	})
}

// handleExportBatch downloads a batch table as csv or xlsx
func (s *Server) handleExportBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatCSV
	}

	data, contentType, err := s.service.ExportBatch(id, format)
	if errors.Is(err, ErrUnsupportedFormat) {
		corsError(w, "Format must be csv or xlsx", http.StatusBadRequest)
		return
	}
	if err != nil {
		notFoundOr(w, err, "Batch not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="batch_%s.%s"`, id, format))
	w.Write(data)
}
