// Package ingest reads passage corpora from JSON and JSONL files and ships
// a small built-in demo corpus for running without any data on disk.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docsift/docsift/internal/corpus"
)

// ErrNoRecords indicates a corpus file that parsed cleanly but contained no
// passages.
var ErrNoRecords = errors.New("ingest: corpus file holds no passages")

// maxLineBytes bounds a single JSONL record. Passages are paragraphs, so a
// megabyte is generous.
const maxLineBytes = 1 << 20

// record is the on-disk passage schema. Only text is mandatory; provenance
// fields are carried through when present.
type record struct {
	Source   string `json:"source"`
	Location string `json:"location"`
	Text     string `json:"text"`
	Link     string `json:"link"`
}

func (r record) toPassage() corpus.Passage {
	return corpus.Passage{
		Source:   r.Source,
		Location: r.Location,
		Text:     r.Text,
		Link:     r.Link,
	}
}

// LoadFile reads a corpus file, choosing the format from the extension:
// .jsonl and .ndjson are record-per-line, anything else is parsed as JSON.
func LoadFile(path string) ([]corpus.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return ReadJSON(f)
	}
}

// ReadJSON parses a corpus from r. The payload is either a bare array of
// records or an object with a "documents" array, the envelope older export
// scripts wrote.
func ReadJSON(r io.Reader) ([]corpus.Passage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		var envelope struct {
			Documents []record `json:"documents"`
		}
		if envErr := json.Unmarshal(data, &envelope); envErr != nil || envelope.Documents == nil {
			return nil, fmt.Errorf("parse corpus: %w", err)
		}
		records = envelope.Documents
	}
	return toPassages(records)
}

// ReadJSONL parses one record per line, skipping blank lines. Errors name
// the 1-based line they occurred on.
func ReadJSONL(r io.Reader) ([]corpus.Passage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []record
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("parse corpus line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return toPassages(records)
}

func toPassages(records []record) ([]corpus.Passage, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	passages := make([]corpus.Passage, 0, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			return nil, fmt.Errorf("ingest: record %d has no text", i)
		}
		passages = append(passages, rec.toPassage())
	}
	return passages, nil
}

// SeedPassages returns the built-in demo corpus: a handful of data
// protection summaries with stable deep links, enough to exercise search,
// highlighting, and citations without processing any documents.
func SeedPassages() []corpus.Passage {
	return []corpus.Passage{
		{
			Source:   "GDPR-Compliance-Manual.pdf",
			Location: "Page 1",
			Text:     "General Data Protection Regulation (GDPR) Compliance Manual. This document provides comprehensive guidance on GDPR compliance requirements, data protection principles, and individual rights under the regulation.",
			Link:     "https://example.com/gdpr-manual.pdf#page=1",
		},
		{
			Source:   "Data-Protection-Rights.pdf",
			Location: "Page 1",
			Text:     "Rights of Individuals under the General Data Protection Regulation. Data subjects have various rights including the right to access, rectify, erase, restrict processing, data portability, and object to processing of their personal data.",
			Link:     "https://example.com/data-rights.pdf#page=1",
		},
		{
			Source:   "GDPR-Principles.pdf",
			Location: "Page 2",
			Text:     "Key principles under GDPR include lawfulness, fairness and transparency, purpose limitation, data minimisation, accuracy, storage limitation, integrity and confidentiality, and accountability. Organizations must demonstrate compliance with these principles.",
			Link:     "https://example.com/gdpr-principles.pdf#page=2",
		},
		{
			Source:   "Data-Processing-Agreement.pdf",
			Location: "Page 3",
			Text:     "Data Processing Agreement template for GDPR compliance. This agreement establishes the relationship between data controllers and data processors, defining responsibilities, security measures, and breach notification procedures.",
			Link:     "https://example.com/dpa-template.pdf#page=3",
		},
		{
			Source:   "Breach-Notification-Procedures.pdf",
			Location: "Page 1",
			Text:     "Personal data breach notification requirements under GDPR. Organizations must notify supervisory authorities within 72 hours of becoming aware of a breach, and inform data subjects when the breach poses high risks to their rights and freedoms.",
			Link:     "https://example.com/breach-notification.pdf#page=1",
		},
	}
}
