package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
)

// renderTable lays out rows with a bordered header, sized to its content
func renderTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.DimGray).
		BorderBottom(true).
		Bold(true)
	// unfocused tables still mark the cursor row
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return t.View()
}

func parseID(name, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", domain.ErrInvalidInput, name, s)
	}
	return id, nil
}

// parseIDList parses "12,13, 14" into ids, keeping order and dropping repeats
func parseIDList(name, s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		id, err := parseID(name, part)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
