package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/engine"
	"github.com/spf13/cobra"
)

// atomInput is a parsed atom collection together with its JSON wire form,
// which is what gets forwarded to a server.
type atomInput struct {
	atoms []engine.Atom
	raw   json.RawMessage
}

// readAtoms loads atoms from the file named by args[0], or stdin when no file
// or "-" is given. Files ending in .yaml or .yml are read as YAML.
func readAtoms(cmd *cobra.Command, args []string) (*atomInput, error) {
	name := "-"
	if len(args) > 0 {
		name = args[0]
	}

	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(err, "open atoms")
		}
		defer f.Close()
		r = f
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		data, err = engine.YAMLToJSON(r)
	default:
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}

	atoms, err := engine.DecodeAtoms(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &atomInput{atoms: atoms, raw: data}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
