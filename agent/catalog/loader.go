package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadCardsFile parses the catalog ingestion format: an ordered JSON
// array of card objects. Missing optional fields are tolerated here;
// per-record validation happens at Load so one bad entry never sinks
// the batch.
func ReadCardsFile(path string) ([]CardRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards file: %w", err)
	}
	return ParseCards(raw)
}

func ParseCards(raw []byte) ([]CardRecord, error) {
	var cards []CardRecord
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("parse cards json: %w", err)
	}
	return cards, nil
}
