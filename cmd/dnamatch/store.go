package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/dnamatch/pkg/logger"
	"github.com/orneryd/dnamatch/pkg/metrics"
	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/storage"
)

// openStore opens the configured pedigree store.
func openStore() (storage.Engine, error) {
	if cfg.Storage.InMemory {
		return storage.NewMemoryEngine(), nil
	}
	return storage.NewBadgerEngineWithOptions(storage.BadgerOptions{
		DataDir: cfg.Storage.DataDir,
	})
}

func loadFromStore(ctx context.Context) (*pedigree.Pedigree, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	p, snap, err := store.LoadLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest pedigree from %s: %w", cfg.Storage.DataDir, err)
	}
	logger.Info("using stored pedigree",
		"digest", snap.Digest.Short(), "source", snap.Source, "individuals", snap.Individuals)
	return p, nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <records-file>",
		Short: "Store a pedigree for later runs",
		Long: `Decode a records file (.json, .yaml or .yml), check it and store it in the
pedigree store under its content digest. Importing the same content again
stores nothing new but makes it the latest pedigree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec := metrics.New()
			snap, stored, err := store.Import(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			rec.ObserveImport(stored)
			if cfg.Metrics.TextfilePath != "" {
				if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
					logger.Warn("metrics not written", "err", err)
				}
			}

			logger.Info("pedigree imported",
				"digest", snap.Digest.Short(), "stored", stored,
				"individuals", snap.Individuals, "families", snap.Families)
			fmt.Fprintln(cmd.OutOrStdout(), snap.Digest)
			return nil
		},
	}
}

func newSnapshotsCmd() *cobra.Command {
	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored pedigrees, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DIGEST\tSOURCE\tFORMAT\tINDIVIDUALS\tFAMILIES\tIMPORTED")
			for _, s := range snaps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					s.Digest, s.Source, s.Format, s.Individuals, s.Families,
					s.ImportedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	snapshotsCmd.AddCommand(&cobra.Command{
		Use:   "rm <digest>",
		Short: "Delete a stored pedigree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), storage.Digest(args[0])); err != nil {
				return err
			}
			logger.Info("pedigree deleted", "digest", args[0])
			return nil
		},
	})
	return snapshotsCmd
}
