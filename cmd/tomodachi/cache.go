package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear local state",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached server response",
	Long:  "Drop cached catalogue, manga and page lists. Reading progress and the session are kept.",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		n := a.cache.Len()
		a.cache.Clear()
		fmt.Printf("Cleared %d cached entries\n", n)
		return nil
	}),
}

var recentLimit int

var cacheRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the manga read most recently",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		targets := a.targets.Recent(recentLimit)
		if len(targets) == 0 {
			fmt.Println("Nothing read yet.")
			return nil
		}

		columns := []table.Column{
			{Title: "Manga", Width: 8},
			{Title: "Chapter", Width: 8},
			{Title: "Page", Width: 6},
			{Title: "Read", Width: 20},
		}
		rows := make([]table.Row, len(targets))
		for i, t := range targets {
			rows[i] = table.Row{
				fmt.Sprintf("%d", t.MangaID),
				fmt.Sprintf("%d", t.ChapterID),
				fmt.Sprintf("%d", t.Page),
				t.UpdatedAt.Local().Format(time.DateTime),
			}
		}
		fmt.Println(renderTable(columns, rows))
		return nil
	}),
}

func init() {
	cacheRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "number of entries")
	cacheCmd.AddCommand(cacheClearCmd, cacheRecentCmd)
}
