package pack

import (
	"os"
	"path/filepath"

	"github.com/foundryvtt/foundryvtt-cli/internal/codec"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
	"github.com/foundryvtt/foundryvtt-cli/internal/stage"
	"github.com/foundryvtt/foundryvtt-cli/internal/volatilediff"
)

// writeEntry runs the volatile-diff gate (when requested) against the
// entry's real destination path and serializes the surviving document
// into the staging directory at the same relative location.
func writeEntry(stageDir *stage.Dir, destRoot string, doc docvalue.Document, collection, relDir, filename string, opts ExtractOptions) error {
	relPath := filepath.Join(relDir, filename)
	destPath := filepath.Join(destRoot, relPath)

	final := doc
	if opts.OmitVolatile {
		var err error
		final, err = volatilediff.Resolve(doc, collection, func() (docvalue.Document, bool, error) {
			return readExistingDoc(destPath)
		})
		if err != nil {
			return err
		}
	}

	stagingPath, err := stageDir.Join(relPath)
	if err != nil {
		return err
	}

	return codec.Write(stagingPath, final, codec.WriteOptions{
		YAML:       opts.YAML,
		JSONIndent: opts.JSONOptions.Indent,
		YAMLIndent: opts.YAMLOptions.Indent,
	})
}

// readExistingDoc loads the document previously extracted to path.
// Any failure to read or parse it is reported as simply "no prior
// document", per §4.10: the volatile-diff gate always falls back to
// writing the fresh candidate when the existing file can't be used.
func readExistingDoc(path string) (docvalue.Document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, nil
	}

	var v docvalue.Value
	switch filenamepolicy.Classify(path) {
	case filenamepolicy.YAML:
		v, err = docvalue.DecodeYAML(data)
	case filenamepolicy.JSON:
		v, err = docvalue.DecodeJSON(data)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, nil
	}

	doc, ok := v.(docvalue.Document)
	if !ok {
		return nil, false, nil
	}
	return doc, true, nil
}

func defaultFilename(doc docvalue.Document, idHint, ext string) string {
	nameVal, _ := doc.Get("name")
	name, _ := nameVal.(string)
	return filenamepolicy.DeriveFilename(filenamepolicy.Named{Name: name, ID: idHint}, idHint, ext)
}
