package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"research-agent-be/internal/pkg/logger"
	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/utils"
	"research-agent-be/pkg/vectorstore"

	"github.com/oklog/ulid/v2"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize = 600

	SplitFixed     = "fixed"
	SplitRecursive = "recursive"
)

var markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""}

// SourceDocument is a file loaded from the docs directory.
type SourceDocument struct {
	Source string
	Text   string
}

type IndexReport struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// Indexer embeds .md and .txt files into the vector store as document chunks.
type Indexer struct {
	store     vectorstore.Store
	embedder  embedding.EmbeddingProvider
	logger    logger.ILogger
	chunkSize int
	strategy  string
	batchSize int
}

type IndexerOption func(*Indexer)

func WithChunkSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.chunkSize = n
		}
	}
}

// WithStrategy picks SplitFixed (plain rune windows) or SplitRecursive.
func WithStrategy(s string) IndexerOption {
	return func(ix *Indexer) {
		if s != "" {
			ix.strategy = s
		}
	}
}

func NewIndexer(store vectorstore.Store, embedder embedding.EmbeddingProvider, log logger.ILogger, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:     store,
		embedder:  embedder,
		logger:    log,
		chunkSize: DefaultChunkSize,
		strategy:  SplitFixed,
		batchSize: 32,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// LoadDocuments reads every .md and .txt file under dir, sorted by path.
func LoadDocuments(dir string) ([]SourceDocument, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]SourceDocument, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, SourceDocument{Source: filepath.Base(p), Text: string(raw)})
	}
	return docs, nil
}

func (ix *Indexer) split(doc SourceDocument) ([]string, error) {
	if ix.strategy != SplitRecursive {
		return utils.SplitText(doc.Text, ix.chunkSize, 0), nil
	}

	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(ix.chunkSize),
		textsplitter.WithChunkOverlap(0),
	}
	if strings.EqualFold(filepath.Ext(doc.Source), ".md") {
		opts = append(opts, textsplitter.WithSeparators(markdownSeparators))
	}
	return textsplitter.NewRecursiveCharacter(opts...).SplitText(doc.Text)
}

// IndexDir loads, chunks, embeds and upserts every document under dir.
func (ix *Indexer) IndexDir(ctx context.Context, dir string) (IndexReport, error) {
	docs, err := LoadDocuments(dir)
	if err != nil {
		return IndexReport{}, err
	}
	if len(docs) == 0 {
		return IndexReport{}, fmt.Errorf("no documents found in %s", dir)
	}
	return ix.Index(ctx, docs)
}

func (ix *Indexer) Index(ctx context.Context, docs []SourceDocument) (IndexReport, error) {
	report := IndexReport{Documents: len(docs)}
	batch := make([]vectorstore.Record, 0, ix.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ix.store.Upsert(ctx, batch...); err != nil {
			return fmt.Errorf("upsert chunks: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, doc := range docs {
		chunks, err := ix.split(doc)
		if err != nil {
			return report, fmt.Errorf("split %s: %w", doc.Source, err)
		}
		for i, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			resp, err := ix.embedder.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
			if err != nil {
				return report, fmt.Errorf("embed %s chunk %d: %w", doc.Source, i, err)
			}
			batch = append(batch, vectorstore.Record{
				ID:     ulid.Make().String(),
				Vector: resp.Embedding.Values,
				Metadata: map[string]any{
					"type":        ChunkType,
					"source":      doc.Source,
					"text":        chunk,
					"chunk_index": i,
				},
			})
			report.Chunks++
			if len(batch) >= ix.batchSize {
				if err := flush(); err != nil {
					return report, err
				}
			}
		}
		ix.logger.Debug("Indexer", "Indexed document", map[string]interface{}{
			"source": doc.Source,
			"chunks": len(chunks),
		})
	}
	if err := flush(); err != nil {
		return report, err
	}

	ix.logger.Info("Indexer", "Index build complete", map[string]interface{}{
		"documents": report.Documents,
		"chunks":    report.Chunks,
	})
	return report, nil
}

// Reset removes every indexed chunk and leaves conversation memories alone.
func (ix *Indexer) Reset(ctx context.Context) (int, error) {
	return ix.store.Delete(ctx, vectorstore.Filter{"type": ChunkType})
}
