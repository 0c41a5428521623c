package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/basket"
	cfgpkg "github.com/KaramelBytes/basketlens/internal/config"
	"github.com/KaramelBytes/basketlens/internal/dataset"
	"github.com/KaramelBytes/basketlens/internal/logging"
	"github.com/KaramelBytes/basketlens/internal/rules"
	"github.com/spf13/cobra"
)

// inputFlags selects a transaction table and the mining thresholds. Commands that
// mine embed one and call register in their init.
type inputFlags struct {
	dataset    string
	delimiter  string
	sheetName  string
	sheetIndex int

	minSupport    float64
	minConfidence float64
	minLift       float64
	minLength     int
	maxLength     int
}

func (f *inputFlags) register(c *cobra.Command) {
	def := apriori.DefaultThresholds()
	fl := c.Flags()
	fl.StringVar(&f.dataset, "dataset", "", "use a stored dataset (id or id prefix) instead of a file")
	fl.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab' (default ',' or tab for .tsv)")
	fl.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	fl.IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (default first sheet)")
	fl.Float64Var(&f.minSupport, "min-support", def.MinSupport, "minimum itemset support (overrides config)")
	fl.Float64Var(&f.minConfidence, "min-confidence", def.MinConfidence, "minimum rule confidence (overrides config)")
	fl.Float64Var(&f.minLift, "min-lift", def.MinLift, "minimum rule lift (overrides config)")
	fl.IntVar(&f.minLength, "min-length", def.MinLength, "minimum itemset size (overrides config)")
	fl.IntVar(&f.maxLength, "max-length", def.MaxLength, "maximum itemset size, 0 for no limit (overrides config)")
}

// thresholds starts from the configured floors and applies flags the user set.
func (f *inputFlags) thresholds(c *cobra.Command) (apriori.Thresholds, error) {
	conf, err := currentConfig()
	if err != nil {
		return apriori.Thresholds{}, err
	}
	th := thresholdsFromConfig(conf)
	fl := c.Flags()
	if fl.Changed("min-support") {
		th.MinSupport = f.minSupport
	}
	if fl.Changed("min-confidence") {
		th.MinConfidence = f.minConfidence
	}
	if fl.Changed("min-lift") {
		th.MinLift = f.minLift
	}
	if fl.Changed("min-length") {
		th.MinLength = f.minLength
	}
	if fl.Changed("max-length") {
		th.MaxLength = f.maxLength
	}
	if th.MinSupport <= 0 {
		return th, apriori.ErrInvalidSupport
	}
	return th, nil
}

func thresholdsFromConfig(c *cfgpkg.Global) apriori.Thresholds {
	return apriori.Thresholds{
		MinSupport:    c.MinSupport,
		MinConfidence: c.MinConfidence,
		MinLift:       c.MinLift,
		MinLength:     c.MinLength,
		MaxLength:     c.MaxLength,
	}
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// load reads the table named by args[0] or --dataset and returns a display name
// with its transactions.
func (f *inputFlags) load(args []string) (string, []basket.Transaction, error) {
	switch {
	case len(args) > 0 && f.dataset != "":
		return "", nil, errors.New("pass either a file or --dataset, not both")
	case f.dataset != "":
		store, err := openStore()
		if err != nil {
			return "", nil, err
		}
		d, txs, err := store.Open(f.dataset)
		if err != nil {
			return "", nil, err
		}
		return d.Name, txs, nil
	case len(args) == 0:
		return "", nil, errors.New("a transaction file or --dataset is required")
	}

	delim, err := parseDelimiter(f.delimiter)
	if err != nil {
		return "", nil, err
	}
	path := args[0]
	txs, err := basket.LoadFile(path, basket.Options{Delimiter: delim, SheetName: f.sheetName, SheetIndex: f.sheetIndex})
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return filepath.Base(path), txs, nil
}

// mined is the output of loading and mining one table.
type mined struct {
	name       string
	txs        []basket.Transaction
	thresholds apriori.Thresholds
	rules      rules.Table
}

// mine loads the selected table and builds its rule table.
func (f *inputFlags) mine(c *cobra.Command, args []string) (*mined, error) {
	th, err := f.thresholds(c)
	if err != nil {
		return nil, err
	}
	name, txs, err := f.load(args)
	if err != nil {
		return nil, err
	}
	records, err := apriori.Mine(txs, th)
	if err != nil {
		return nil, err
	}
	tbl := rules.Build(records)
	logging.Debug().
		Str("file", name).
		Int("transactions", len(txs)).
		Int("rules", len(tbl)).
		Stringer("thresholds", th).
		Msg("mined")
	return &mined{name: name, txs: txs, thresholds: th, rules: tbl}, nil
}

func openStore() (*dataset.Store, error) {
	conf, err := currentConfig()
	if err != nil {
		return nil, err
	}
	return dataset.NewStore(conf.DataDir)
}
