package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sidetask/internal/config"
	"sidetask/internal/domain"
	"sidetask/internal/storage"
)

func openStore() (*storage.SQLiteStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStore(cfg.DBPath)
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task directly to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			input := domain.CreateTaskInput{Title: args[0]}
			if tag, _ := cmd.Flags().GetString("recurrence"); tag != "" {
				input.RecurrenceTag = &tag
			}
			if note, _ := cmd.Flags().GetString("note"); note != "" {
				input.Note = &note
			}
			if due, _ := cmd.Flags().GetString("due"); due != "" {
				input.DueDate = &due
			}

			task, err := store.Create(context.Background(), input)
			if err != nil {
				return err
			}

			fmt.Printf("Added %s (%s)\n", task.Title, task.ID)
			return nil
		},
	}

	cmd.Flags().StringP("recurrence", "r", "", "Recurrence tag (none, daily, weekly, bi-weekly)")
	cmd.Flags().StringP("note", "n", "", "Note text")
	cmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD)")

	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.List(context.Background())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return json.NewEncoder(os.Stdout).Encode(tasks)
			}

			for _, t := range tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				line := fmt.Sprintf("[%s] %s", mark, t.Title)
				if t.RecurrenceTag != domain.RecurrenceNone {
					line += fmt.Sprintf(" (%s)", t.RecurrenceTag)
				}
				if t.DueDate != nil {
					line += fmt.Sprintf(" due %s", *t.DueDate)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}
