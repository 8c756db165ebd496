package main

// Run one document through the import pipeline without the HTTP server:
//   go run ./cmd/importtest -file incident.pdf -schema incident

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grc-backend/internal/bootstrap"
	"grc-backend/internal/extract"
	"grc-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "Path to the document (pdf, docx, xlsx or txt)")
	schemaName := flag.String("schema", "incident", "Target schema")
	textOnly := flag.Bool("text-only", false, "Print the extracted text and stop")
	outPath := flag.String("out", "", "Path to write the JSON outcome (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (openai, claude, gemini, none)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}
	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	doc := extract.UploadedDocument{Data: data, FileName: filepath.Base(*filePath)}
	ctx := context.Background()

	if *textOnly {
		text, err := extract.DefaultRegistry().Extract(ctx, doc)
		if err != nil {
			exitErr(fmt.Sprintf("extract: %v", err))
		}
		fmt.Printf("type=%s extractor=%s chars=%d\n\n%s\n", text.Type, text.Extractor, text.Len(), text.String())
		return
	}

	cfg.DatabaseURL = ""
	cfg.Env = "dev"
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = *model
	app, err := bootstrap.Build(cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap: %v", err))
	}
	schema, ok := app.Catalog.Get(*schemaName)
	if !ok {
		exitErr(fmt.Sprintf("unknown schema %q (have %s)", *schemaName, strings.Join(app.Catalog.Names(), ", ")))
	}

	out, err := app.Pipeline.Run(ctx, schema, doc)
	if err != nil {
		exitErr(fmt.Sprintf("import: %v", err))
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(append(pretty, '\n')); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
