package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/relq/internal/harness"
	"github.com/roach88/relq/internal/store"
)

// Source kinds.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// configSchema constrains configuration files and supplies defaults.
// #Config is closed, so misspelled fields are rejected.
const configSchema = `
#Config: {
	source: {
		kind: *"csv" | "sqlite"
		dir:  string | *"."
		db:   string | *""
	}
	passes: [...string] | *["UNF", "DLC", "PDS", "APE", "FCE"]
	trials:   (int & >=1) | *5
	max_rows: (int & >=0) | *0
}
`

// Config is the decoded CLI configuration.
type Config struct {
	Source SourceConfig `json:"source"`
	Passes []string     `json:"passes"`
	Trials int          `json:"trials"`

	// MaxRows bounds the rows any plan node may produce during eval.
	// Zero means no limit.
	MaxRows int `json:"max_rows"`
}

// SourceConfig selects where relations are read from.
type SourceConfig struct {
	Kind string `json:"kind"`
	Dir  string `json:"dir"`
	DB   string `json:"db"`
}

// LoadConfig reads a CUE configuration file and unifies it with the schema.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema, cue.Filename("config-schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file := ctx.CompileString("{}")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		file = ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return nil, configError(err)
		}
	}

	v := def.Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, configError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, configError(err)
	}
	if cfg.Source.Kind == SourceSQLite && cfg.Source.DB == "" {
		return nil, fmt.Errorf("config: source.db is required for sqlite sources")
	}
	return &cfg, nil
}

// configError renders the first CUE error with its position.
func configError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return fmt.Errorf("config: %s", errors.Details(errs[0], nil))
}

// applyFlags lets --db and --data-dir override the configured source.
func (c *Config) applyFlags(opts *RootOptions) {
	switch {
	case opts.Database != "":
		c.Source = SourceConfig{Kind: SourceSQLite, DB: opts.Database}
	case opts.DataDir != "":
		c.Source = SourceConfig{Kind: SourceCSV, Dir: opts.DataDir}
	}
}

// openSource opens the configured relation source. The returned close
// function releases it.
func openSource(cfg *Config) (harness.Source, func() error, error) {
	switch cfg.Source.Kind {
	case SourceSQLite:
		st, err := store.Open(cfg.Source.DB)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		info, err := os.Stat(cfg.Source.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("data directory: %w", err)
		}
		if !info.IsDir() {
			return nil, nil, fmt.Errorf("not a directory: %s", cfg.Source.Dir)
		}
		return store.CSVDir{Dir: cfg.Source.Dir}, func() error { return nil }, nil
	}
}
