package utils

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
)

// ReadWordsFile loads a word list from a UTF-8 text file, one word per line.
// Surrounding whitespace is stripped and blank lines are dropped.
func ReadWordsFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading word file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word file %s: %w", filePath, err)
	}

	log.Printf("[ReadWordsFile] read %d words from %s", len(words), filePath)
	return words, nil
}
