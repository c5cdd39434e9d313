package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/catalog"
	"github.com/foundryvtt/foundryvtt-cli/internal/stage"
)

// ExtractPack writes one source file per primary document found in
// the pack at src into dest.
func ExtractPack(src, dest string, opts ExtractOptions) (err error) {
	logger := zap.NewNop()
	if opts.Log {
		l, lerr := zap.NewDevelopment()
		if lerr == nil {
			logger = l
		}
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if opts.NEDB && strings.ToLower(filepath.Ext(src)) != ".db" {
		return fmt.Errorf("%w: nedb extract source %q must end in .db", ErrBadTarget, src)
	}

	var collection string
	if opts.NEDB {
		collection = opts.Collection
		if collection == "" {
			collection, _ = catalog.CollectionForType(opts.DocumentType)
		}
		if collection == "" {
			return fmt.Errorf("%w: could not resolve a collection from Collection or DocumentType", ErrMissingType)
		}
	}

	if err = os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("pack: creating %s: %w", dest, err)
	}

	stageDir, err := stage.New(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stageDir.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if opts.NEDB {
		if err = extractLogStore(src, stageDir, dest, collection, opts, sugar); err != nil {
			return err
		}
	} else {
		if err = extractSortedStore(src, stageDir, dest, opts, sugar); err != nil {
			return err
		}
	}

	return stageDir.Publish(opts.Clean)
}
