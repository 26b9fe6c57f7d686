package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/spf13/cobra"
)

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage the subject directory",
	Long: `Add, list and remove subjects in the configured store.

A running server caches resolved subjects for identity.cache_ttl, so changes
made here reach it once the entry expires. Send the server SIGHUP to pick them
up immediately.`,
}

var subjectAddCmd = &cobra.Command{
	Use:     "add EXTERNAL_ID USER_ID FIRST_NAME LAST_NAME",
	Short:   "Add or update a subject",
	Example: `  onlinetime subject add 42 4200 Ada Lovelace`,
	Args:    cobra.ExactArgs(4),
	RunE:    runSubjectAdd,
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known subjects",
	Args:  cobra.NoArgs,
	RunE:  runSubjectList,
}

var subjectRemoveCmd = &cobra.Command{
	Use:   "remove EXTERNAL_ID",
	Short: "Remove a subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectRemove,
}

func init() {
	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectListCmd)
	subjectCmd.AddCommand(subjectRemoveCmd)
	rootCmd.AddCommand(subjectCmd)
}

func withStore(fn func(ctx context.Context, store storage.Store) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	return fn(context.Background(), store)
}

func runSubjectAdd(cmd *cobra.Command, args []string) error {
	externalID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid external id: %s", args[0])
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id: %s", args[1])
	}

	subject := storage.Subject{
		ExternalID: externalID,
		UserID:     userID,
		FirstName:  args[2],
		LastName:   args[3],
	}

	return withStore(func(ctx context.Context, store storage.Store) error {
		if err := store.Subjects().Upsert(ctx, subject); err != nil {
			return fmt.Errorf("failed to save subject: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Saved subject %d (%s) -> user %d\n", externalID, subject.FullName(), userID)
		return nil
	})
}

func runSubjectList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store storage.Store) error {
		subjects, err := store.Subjects().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list subjects: %w", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tUSER\tNAME")
		for _, s := range subjects {
			_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\n", s.ExternalID, s.UserID, s.FullName())
		}
		return tw.Flush()
	})
}

func runSubjectRemove(cmd *cobra.Command, args []string) error {
	externalID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid external id: %s", args[0])
	}

	return withStore(func(ctx context.Context, store storage.Store) error {
		err := store.Subjects().Delete(ctx, externalID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("subject %d not found", externalID)
		}
		if err != nil {
			return fmt.Errorf("failed to remove subject: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Removed subject %d\n", externalID)
		return nil
	})
}
