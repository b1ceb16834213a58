package extract

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"unicode/utf8"
)

// PlainTextRecognizer implements service.TextRecognizer for documents that
// are already text. It stands in for an OCR service in deployments and in
// tests; real image recognition is an external concern.
type PlainTextRecognizer struct{}

// RecognizeText reads the file and returns its lines top to bottom.
func (PlainTextRecognizer) RecognizeText(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("document is not valid UTF-8 text")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return lines, nil
}
