package cli

import (
	"os"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// readDocumentFile loads a document envelope from disk and rebuilds
// the document model from it.
func readDocumentFile(path string) (*flow.Document, *docio.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	env, err := docio.Read(f)
	if err != nil {
		return nil, nil, err
	}
	doc, err := docio.Import(env)
	if err != nil {
		return nil, nil, err
	}
	return doc, env, nil
}

// writeDocumentFile exports a document and writes its envelope to disk.
func writeDocumentFile(path string, doc *flow.Document, settings docio.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidInput, err, "create %s", path)
	}
	defer f.Close()

	return docio.Write(f, docio.Export(doc, settings))
}
