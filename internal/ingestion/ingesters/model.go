package ingesters

import (
	"io"

	"github.com/tidwall/gjson"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// ParseModelVocab reads a HuggingFace-style tokenizer.json (or any JSON
// document exposing a "model.vocab" object mapping token strings to ids,
// the shape Hugging Face's "fast" tokenizers export) and emits one
// single-token Sentence per vocabulary entry, each becoming a Composition
// with no relations.
//
// Extracting further embedding_relations and per-tensor
// ingestion (nearest-neighbor relations derived from the model's actual
// embedding matrix via an HNSW index) is out of scope here: it requires a
// safetensors/Eigen-equivalent tensor-format reader the Go dependency
// surface this repo draws from (see DESIGN.md) has no counterpart for, so
// only the vocabulary — the part expressible as ordinary Compositions —
// is ingested.
func ParseModelVocab(r io.Reader, contentID substrate.ID, out chan<- Sentence) error {
	defer close(out)

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	vocab := gjson.GetBytes(data, "model.vocab")
	if !vocab.Exists() {
		vocab = gjson.GetBytes(data, "vocab")
	}

	vocab.ForEach(func(key, _ gjson.Result) bool {
		if token := key.String(); token != "" {
			out <- Sentence{Tokens: []string{token}, ContentID: contentID}
		}
		return true
	})
	return nil
}
