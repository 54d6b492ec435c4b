package internal

import "fmt"

// Chunk splits text into windows of size characters where consecutive
// windows share exactly overlap characters. Dropping the overlap prefix of
// every chunk after the first reconstructs the input. Text no longer than
// size comes back as a single chunk.
func Chunk(text string, size, overlap int) ([]string, error) {
	if text == "" {
		return nil, fmt.Errorf("chunk: empty text")
	}
	if size <= 0 {
		return nil, fmt.Errorf("chunk: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk: overlap must be in [0, size), got %d", overlap)
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
