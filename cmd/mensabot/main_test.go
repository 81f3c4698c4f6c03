package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plt-aachen/mensabot/internal/store"
)

func TestFormatPostRecord(t *testing.T) {
	line := formatPostRecord(store.PostRecord{
		Canteen:       "academica",
		MenuDate:      "2025-08-25",
		Stream:        "Mensa",
		Topic:         "Mensa Speiseplan 25.08.2025",
		MenuMessageID: 42,
		SentAt:        time.Date(2025, 8, 25, 9, 25, 0, 0, time.UTC),
	})
	assert.Equal(t, "2025-08-25 09:25  academica       Mensa > Mensa Speiseplan 25.08.2025 (message 42)", line)
}
