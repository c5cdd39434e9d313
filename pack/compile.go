package pack

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/adventure"
	"github.com/foundryvtt/foundryvtt-cli/internal/codec"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/scanner"
)

// CompilePack builds a pack at dest from the per-document source
// files found under src.
func CompilePack(src, dest string, opts CompileOptions) error {
	logger := zap.NewNop()
	if opts.Log {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	if opts.NEDB && strings.ToLower(filepath.Ext(dest)) != ".db" {
		return fmt.Errorf("%w: nedb compile target %q must end in .db", ErrBadTarget, dest)
	}

	files, err := scanner.Scan(src, scanner.Options{YAML: opts.YAML, Recursive: opts.Recursive})
	if err != nil {
		return err
	}

	if opts.NEDB {
		return compileLogStore(dest, files, opts, logger.Sugar())
	}
	return compileSortedStore(dest, files, opts, logger.Sugar())
}

// loadSourceEntry reads, parses, and conditionally skips one source
// file, running adventure reconstruction and the folder/transform
// gates shared by both backends. skip is true when the file should
// contribute nothing to the compiled pack.
func loadSourceEntry(path string, dropFolders bool, transform TransformEntryFunc, sugar *zap.SugaredLogger) (doc docvalue.Document, key string, skip bool, err error) {
	v, err := codec.Read(path)
	if err != nil {
		sugar.Errorw("failed to parse source file", "path", path, "error", err)
		return nil, "", false, err
	}
	d, ok := v.(docvalue.Document)
	if !ok {
		return nil, "", false, fmt.Errorf("pack: %s does not contain a JSON/YAML object", path)
	}

	keyVal, hasKey := d.Get("_key")
	k, _ := keyVal.(string)
	if !hasKey || k == "" {
		return nil, "", true, nil
	}

	if strings.HasPrefix(k, "!adventures!") {
		d, err = adventure.Collapse(d, adventureFileReader(path))
		if err != nil {
			return nil, "", false, err
		}
	}

	if dropFolders && strings.HasPrefix(k, "!folders!") {
		return nil, "", true, nil
	}

	if transform != nil {
		transformed, keep, err := transform(d)
		if err != nil {
			return nil, "", false, err
		}
		if !keep {
			return nil, "", true, nil
		}
		d = transformed
	}

	return d, k, false, nil
}

// adventureFileReader resolves an Adventure's expanded-mode embedded
// file references relative to the adventure's own source file.
func adventureFileReader(adventurePath string) adventure.ReadFunc {
	base := filepath.Dir(adventurePath)
	return func(relPath string) (docvalue.Document, error) {
		full := filepath.Join(base, relPath)
		v, err := codec.Read(full)
		if err != nil {
			return nil, err
		}
		doc, ok := v.(docvalue.Document)
		if !ok {
			return nil, fmt.Errorf("pack: %s does not contain a JSON/YAML object", full)
		}
		return doc, nil
	}
}

// collectionOfKey extracts the leading sublevel part (the primary
// collection name) from a composite key, for deriving the walker's
// starting collection from a freshly-parsed source document.
func collectionOfKey(key string) string {
	rest := strings.TrimPrefix(key, "!")
	sublevel := rest
	if i := strings.IndexByte(rest, '!'); i >= 0 {
		sublevel = rest[:i]
	}
	if i := strings.IndexByte(sublevel, '.'); i >= 0 {
		sublevel = sublevel[:i]
	}
	return sublevel
}
