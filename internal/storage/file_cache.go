package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileHistory keeps delivered articles in a JSON file.
type FileHistory struct {
	filePath string
	ttl      time.Duration
	items    map[string]SentNewsItem
	links    map[string]string
	mu       sync.RWMutex

	now func() time.Time
}

func NewFileHistory(filePath string, ttlHours int) *FileHistory {
	return &FileHistory{
		filePath: filePath,
		ttl:      time.Duration(ttlHours) * time.Hour,
		items:    make(map[string]SentNewsItem),
		links:    make(map[string]string),
		now:      time.Now,
	}
}

// Load reads the file, dropping expired entries. A missing file is an empty
// history.
func (fh *FileHistory) Load() error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	data, err := os.ReadFile(fh.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentNewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	limit := cutoff(fh.now(), fh.ttl)
	for _, item := range items {
		if item.SentAt.After(limit) {
			fh.items[item.Hash] = item
			fh.links[item.Link] = item.Hash
		}
	}
	return nil
}

// Save writes the unexpired entries back to the file.
func (fh *FileHistory) Save() error {
	fh.mu.RLock()
	limit := cutoff(fh.now(), fh.ttl)
	items := make([]SentNewsItem, 0, len(fh.items))
	for _, item := range fh.items {
		if item.SentAt.After(limit) {
			items = append(items, item)
		}
	}
	fh.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(fh.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

func (fh *FileHistory) IsAlreadySent(hash string) bool {
	fh.mu.RLock()
	defer fh.mu.RUnlock()

	item, exists := fh.items[hash]
	return exists && item.SentAt.After(cutoff(fh.now(), fh.ttl))
}

func (fh *FileHistory) IsLinkAlreadySent(link string) bool {
	fh.mu.RLock()
	hash, ok := fh.links[link]
	fh.mu.RUnlock()
	return ok && link != "" && fh.IsAlreadySent(hash)
}

func (fh *FileHistory) MarkAsSent(item SentNewsItem) error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	if item.SentAt.IsZero() {
		item.SentAt = fh.now()
	}
	fh.items[item.Hash] = item
	fh.links[item.Link] = item.Hash
	return nil
}

func (fh *FileHistory) GetStats() map[string]int {
	fh.mu.RLock()
	defer fh.mu.RUnlock()

	return map[string]int{
		"total_items": len(fh.items),
	}
}

// Close saves the file.
func (fh *FileHistory) Close() error {
	return fh.Save()
}

var _ History = (*FileHistory)(nil)
