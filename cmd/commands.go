package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"dataset-indexer/internal/config"
	"dataset-indexer/internal/dataset"
	"dataset-indexer/internal/db"
	"dataset-indexer/internal/scanner"
	"dataset-indexer/internal/service"
)

func newRootCommand() *cobra.Command {
	var envFile string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "dataset-indexer",
		Short:         "Index a speech corpus into aligned audio and transcript lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to .env file")

	rootCmd.AddCommand(newIndexCommand(&cfg))
	rootCmd.AddCommand(newShowCommand(&cfg))
	return rootCmd
}

func newIndexCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "index [data-dir]",
		Short: "Gather audio/transcript pairs, write both lists and verify them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			dataDir := c.Data.Dir
			if len(args) == 1 {
				dataDir = args[0]
			}

			missing, err := scanner.ParseMissingPolicy(c.Data.MissingPolicy)
			if err != nil {
				return err
			}
			scanOpts := scanner.Options{AudioExt: c.Data.AudioExt, Missing: missing}
			if c.Data.TranscriptFile != "" {
				scanOpts.Naming = scanner.FixedNaming(c.Data.TranscriptFile)
			}

			var exporter *service.Exporter
			var database *db.DB
			if c.Export.Enabled {
				database, err = db.New(c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
				if err != nil {
					return fmt.Errorf("DB error: %w", err)
				}
				defer database.Close()
				log.Println("✓ Connected to MariaDB")

				if err := database.CreateTable(cmd.Context()); err != nil {
					return fmt.Errorf("create table: %w", err)
				}
				exporter = service.NewExporter(database, c.Export.Probe)
			}

			ix := service.NewIndexer(service.IndexOptions{
				DataDir:        dataDir,
				AudioList:      c.Output.AudioList,
				TranscriptList: c.Output.TranscriptList,
				SampleSize:     c.Output.SampleSize,
				Scan:           scanOpts,
			}, exporter)

			rep, err := ix.Run(cmd.Context())
			if err != nil {
				return err
			}

			log.Printf("✓ Done in %s: %d pairs", rep.Elapsed, rep.Pairs)
			if database != nil {
				if n, err := database.Count(cmd.Context()); err == nil {
					log.Printf("  Database holds %d files", n)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(rep.Sample))
			return nil
		},
	}
}

func newShowCommand(cfg **config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Load the list files and print the first pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if !cmd.Flags().Changed("limit") {
				limit = c.Output.SampleSize
			}

			audio, transcripts, err := dataset.LoadLists(c.Output.AudioList, c.Output.TranscriptList)
			if err != nil {
				return err
			}
			if len(audio) != len(transcripts) {
				log.Printf("⚠ %s has %d lines, %s has %d", c.Output.AudioList, len(audio), c.Output.TranscriptList, len(transcripts))
			}

			n := min(len(audio), len(transcripts))
			if limit >= 0 && limit < n {
				n = limit
			}
			pairs := make([]scanner.Pair, n)
			for i := 0; i < n; i++ {
				pairs[i] = scanner.Pair{AudioPath: audio[i], Transcript: transcripts[i]}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(pairs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "number of pairs to print (-1 for all)")
	return cmd
}
