package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-fields/internal/extract"
	"github.com/zombor/receipt-fields/internal/ocr"
	"github.com/zombor/receipt-fields/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// parseLevel maps a --log-level value to a slog level
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// splitList splits a comma separated flag value
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-fields")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "receipt-fields.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./receipts", "Storage directory path")
		engineType    = fs.StringLong("engine", "gemini", "OCR engine: 'gemini', 'ollama' or 'tesseract'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		languages     = fs.StringLong("languages", "tr,en", "Comma separated receipt languages (ISO 639-1)")
		minConfidence = fs.Float64Long("min-confidence", 0.5, "Default minimum fragment confidence (0-1)")
		rowTolerance  = fs.Float64Long("row-tolerance", extract.DefaultConfig().RowTolerance, "Max vertical offset in pixels for fragments on the same row")
		maxImageSize  = fs.IntLong("max-image-size", 1000, "Longest image side before OCR, 0 keeps the original size")
		preprocess    = fs.StringLong("preprocess", "none", "Image preprocessing: none, grayscale, contrast or binarize")
		workers       = fs.IntLong("workers", 4, "Concurrent OCR calls per batch")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_FIELDS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *minConfidence < 0 || *minConfidence > 1 {
		slog.Error("Invalid minimum confidence", "min_confidence", *minConfidence)
		os.Exit(1)
	}

	extractCfg := extract.DefaultConfig()
	extractCfg.RowTolerance = *rowTolerance
	if err := extractCfg.Validate(); err != nil {
		slog.Error("Invalid extraction config", "error", err)
		os.Exit(1)
	}

	mode, err := ocr.ParsePreprocess(*preprocess)
	if err != nil {
		slog.Error("Invalid preprocess mode", "error", err)
		os.Exit(1)
	}
	ocrOpts := ocr.Options{
		Languages:    splitList(*languages),
		MaxImageSize: *maxImageSize,
		Preprocess:   mode,
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR engine based on type
	var engine ocr.Engine
	switch *engineType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini engine...", "model", *geminiModel)
		engine, err = ocr.NewGemini(apiKey, *geminiModel, ocrOpts)
	case "ollama":
		slog.Info("Initializing Ollama engine...", "url", *ollamaURL, "model", *ollamaModel)
		engine, err = ocr.NewOllama(*ollamaURL, *ollamaModel, ocrOpts)
	case "tesseract":
		slog.Info("Initializing Tesseract engine...", "languages", ocrOpts.Languages)
		engine, err = ocr.NewTesseract(ocrOpts)
	default:
		slog.Error("Invalid engine type", "type", *engineType, "valid", "gemini, ollama or tesseract")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize OCR engine", "engine", *engineType, "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	receiptService := receipt.NewService(db, engine, store, receipt.Options{
		Extract:       extractCfg,
		MinConfidence: *minConfidence,
		Workers:       *workers,
	})

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
