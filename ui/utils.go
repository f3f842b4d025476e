package ui

import (
	"fmt"
	"time"
)

// formatDateSeparator formats a message date for display as a separator
func formatDateSeparator(t time.Time) string {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	local := t.Local()
	msgDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())

	if msgDate.Equal(today) {
		return "Today"
	} else if msgDate.Equal(yesterday) {
		return "Yesterday"
	} else if msgDate.Year() == now.Year() {
		return local.Format("January 2")
	} else {
		return local.Format("January 2, 2006")
	}
}

// formatSize formats a byte count for the attachment line
func formatSize(size int) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	if size < 1024*1024 {
		return fmt.Sprintf("%d KB", size/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
}
