//go:build ignore

// Package main generates a synthetic passage corpus for load testing.
// Usage: go run scripts/generate-test-corpus.go -passages 5000 -output testdata/bench-corpus.jsonl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numPassages = flag.Int("passages", 5000, "Number of passages to generate")
	numSources  = flag.Int("sources", 50, "Number of distinct source documents")
	output      = flag.String("output", "testdata/bench-corpus.jsonl", "Output file (JSON Lines)")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Word pools for generating realistic policy prose
var (
	docAreas = []string{
		"Data", "Privacy", "Security", "Retention", "Incident",
		"Access", "Vendor", "Backup", "Encryption", "Onboarding",
		"Compliance", "Audit", "Network", "Device", "Records",
	}
	docSubjects = []string{
		"Retention", "Response", "Management", "Protection", "Classification",
		"Disposal", "Continuity", "Review", "Notification", "Training",
	}
	docKinds = []string{
		"Policy", "Handbook", "Playbook", "Manual", "Guidelines",
		"Procedures", "Standard", "Checklist", "Agreement", "Charter",
	}
	topics = []string{
		"data retention", "access control", "incident response", "breach notification",
		"encryption at rest", "key rotation", "vendor onboarding", "audit logging",
		"consent management", "records disposal", "backup verification", "least privilege",
		"risk assessment", "security training", "change management", "data minimization",
		"acceptable use", "asset inventory", "patch management", "disaster recovery",
	}
	sentences = []string{
		"The %s process requires sign-off from the system owner before any change ships.",
		"Teams review %s controls quarterly and record exceptions in the risk register.",
		"Systems that handle personal data must document %s and retain evidence for audits.",
		"Failures to follow the %s procedure must be reported within one business day.",
		"The %s checklist is part of every onboarding and offboarding workflow.",
		"Owners keep the %s runbook current and rehearse it twice a year.",
		"Requests relating to %s are tracked in the compliance queue until closed.",
		"Third parties with access to internal systems accept the %s terms in writing.",
		"Annual certification covers %s for every production service.",
		"The committee approves deviations from %s requirements case by case.",
	}
)

// record matches the ingestion file schema.
type record struct {
	Source   string `json:"source"`
	Location string `json:"location"`
	Text     string `json:"text"`
	Link     string `json:"link"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Generating %d passages in %s...\n", *numPassages, *output)

	sources := makeSources(rng, *numSources)
	enc := json.NewEncoder(f)

	for i := 0; i < *numPassages; i++ {
		src := sources[rng.Intn(len(sources))]
		page := rng.Intn(120) + 1

		rec := record{
			Source:   src,
			Location: fmt.Sprintf("page %d", page),
			Text:     makePassage(rng),
			Link:     fmt.Sprintf("https://example.com/docs/%s#page=%d", slug(src), page),
		}
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing passage %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d passages across %d sources.\n", *numPassages, len(sources))
}

func randomWord(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// makeSources builds n distinct document names like "Data-Retention-Policy.pdf".
func makeSources(rng *rand.Rand, n int) []string {
	seen := make(map[string]bool, n)
	sources := make([]string, 0, n)
	for len(sources) < n {
		name := fmt.Sprintf("%s-%s-%s.pdf",
			randomWord(rng, docAreas),
			randomWord(rng, docSubjects),
			randomWord(rng, docKinds),
		)
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}

// makePassage composes two to four sentences of policy prose.
func makePassage(rng *rand.Rand) string {
	count := rng.Intn(3) + 2
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf(randomWord(rng, sentences), randomWord(rng, topics))
	}
	return strings.Join(parts, " ")
}

func slug(source string) string {
	return strings.ToLower(strings.TrimSuffix(source, ".pdf"))
}
