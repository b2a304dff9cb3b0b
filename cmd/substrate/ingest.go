package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	domain "github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/ingesters"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/pkg/hash"
)

// contentIDFor derives a stable content identity for one ingested source
// file from its path, the same way every other entity in the store is
// content-addressed (pkg/hash).
func contentIDFor(path string) domain.ID {
	return hash.Sum([]byte(path))
}

func newIngestUDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ud <file.conllu>",
		Short: "ingest a Universal Dependencies CoNLL-U treebank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanIngest(cmd, args[0], func(ctx context.Context, f io.Reader, contentID domain.ID, out chan ingesters.Sentence) <-chan error {
				errc := make(chan error, 1)
				go ingesters.ParseConLLU(f, contentID, out, errc)
				return errc
			})
		},
	}
}

func newIngestWiktionaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wiktionary <dump.xml>",
		Short: "ingest a Wiktionary XML dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanIngest(cmd, args[0], func(ctx context.Context, f io.Reader, contentID domain.ID, out chan ingesters.Sentence) <-chan error {
				go ingesters.ParseWiktionaryXML(f, contentID, out)
				return nil
			})
		},
	}
}

func newIngestTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <file.txt>",
		Short: "ingest plain text, one sentence per line of prose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanIngest(cmd, args[0], func(ctx context.Context, f io.Reader, contentID domain.ID, out chan ingesters.Sentence) <-chan error {
				go ingesters.ParseText(f, contentID, out)
				return nil
			})
		},
	}
}

func newIngestVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab <tokenizer.json>",
		Short: "ingest a HuggingFace-style tokenizer vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanIngest(cmd, args[0], func(ctx context.Context, f io.Reader, contentID domain.ID, out chan ingesters.Sentence) <-chan error {
				errc := make(chan error, 1)
				go func() { errc <- ingesters.ParseModelVocab(f, contentID, out) }()
				return errc
			})
		},
	}
}

// runChanIngest opens path, wires a buffered Sentence channel between the
// named parser (started via startParser) and a Pipeline over the command's
// runtime BatchSink, and blocks until the parser's out channel is drained.
func runChanIngest(cmd *cobra.Command, path string, startParser func(ctx context.Context, f io.Reader, contentID domain.ID, out chan ingesters.Sentence) <-chan error) error {
	deps, err := getRuntimeDeps(cmd)
	if err != nil {
		return err
	}

	f, err := openSource(cmd.Context(), deps.cfg.MinIO, deps.logger, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	contentID := contentIDFor(path)
	sentences := make(chan ingesters.Sentence, 256)
	errc := startParser(cmd.Context(), f, contentID, sentences)

	pipeline := ingesters.New(deps.service, deps.cache, deps.sink, deps.chunkSize)
	if err := pipeline.Ingest(cmd.Context(), sentences); err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	if errc != nil {
		select {
		case parseErr := <-errc:
			if parseErr != nil {
				return fmt.Errorf("parse %s: %w", path, parseErr)
			}
		default:
		}
	}

	deps.logger.Info("ingestion complete", logging.String("file", path), logging.String("content_id", contentID.String()))
	return nil
}

func newIngestTatoebaCmd() *cobra.Command {
	var linksPath string
	cmd := &cobra.Command{
		Use:   "tatoeba <sentences.csv>",
		Short: "ingest a Tatoeba sentences.csv, optionally followed by links.csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := getRuntimeDeps(cmd)
			if err != nil {
				return err
			}

			sentPath := args[0]
			sf, err := openSource(cmd.Context(), deps.cfg.MinIO, deps.logger, sentPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", sentPath, err)
			}
			defer sf.Close()

			contentID := contentIDFor(sentPath)
			tatoeba := ingesters.NewTatoebaIngester(deps.service, deps.cache, deps.sink)
			if err := tatoeba.IngestSentences(cmd.Context(), sf, contentID); err != nil {
				return fmt.Errorf("ingest sentences: %w", err)
			}

			if linksPath != "" {
				lf, err := openSource(cmd.Context(), deps.cfg.MinIO, deps.logger, linksPath)
				if err != nil {
					return fmt.Errorf("open %s: %w", linksPath, err)
				}
				defer lf.Close()
				if err := tatoeba.IngestLinks(cmd.Context(), lf, contentID); err != nil {
					return fmt.Errorf("ingest links: %w", err)
				}
			}

			deps.logger.Info("tatoeba ingestion complete", logging.String("sentences", sentPath), logging.String("links", linksPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&linksPath, "links", "", "path to links.csv (translation pairs)")
	return cmd
}
