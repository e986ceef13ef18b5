// Package assemble merges filtered records from several sources into one
// deterministically shuffled corpus.
package assemble

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/anachronism"
	"github.com/sells-group/project1899/internal/boilerplate"
	"github.com/sells-group/project1899/internal/config"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
	"github.com/sells-group/project1899/internal/source"
)

// DefaultYearCutoff is the first excluded publication year.
const DefaultYearCutoff = 1900

// YearPolicy decides what happens to a record whose year field is missing or unparsable.
type YearPolicy string

const (
	// Lenient lets such records bypass the metadata filter.
	Lenient YearPolicy = "lenient"
	// Strict drops them as not confirmed pre-cutoff.
	Strict YearPolicy = "strict"
)

// ParseYearPolicy converts a config value. Empty means Lenient.
func ParseYearPolicy(s string) (YearPolicy, error) {
	switch YearPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lenient:
		return Lenient, nil
	case Strict:
		return Strict, nil
	default:
		return "", eris.Errorf("assemble: unknown year policy %q (valid: lenient, strict)", s)
	}
}

// Input binds a Source to the fields and filters used to normalize it.
type Input struct {
	Source     source.Source
	TextField  string
	YearField  string // empty: the whole source is trusted to predate the cutoff
	IDField    string
	TitleField string
	Stripper   boilerplate.Stripper
	YearPolicy YearPolicy
}

// InputFromConfig builds an Input from a source entry.
func InputFromConfig(src source.Source, cfg config.SourceConfig) (Input, error) {
	strategy, err := boilerplate.ParseStrategy(cfg.Boilerplate)
	if err != nil {
		return Input{}, err
	}
	policy, err := ParseYearPolicy(cfg.YearPolicy)
	if err != nil {
		return Input{}, err
	}
	text := cfg.TextField
	if text == "" {
		text = "text"
	}
	return Input{
		Source:     src,
		TextField:  text,
		YearField:  cfg.YearField,
		IDField:    cfg.IDField,
		TitleField: cfg.TitleField,
		Stripper:   boilerplate.New(strategy),
		YearPolicy: policy,
	}, nil
}

// Verdict is the outcome of classifying one row.
type Verdict int

const (
	Kept Verdict = iota
	// DroppedYear failed the metadata filter.
	DroppedYear
	// Rejected passed the metadata filter but contains a modern term.
	Rejected
)

// Outcome is the classification of one row.
type Outcome struct {
	Record       model.Record
	Verdict      Verdict
	YearUnparsed bool
}

// Classify runs one row through the metadata filter, the boilerplate
// stripper and the anachronism filter, and normalizes it to a Record. idx is
// the row's position in its source and seeds the fallback identifier.
func (in Input) Classify(row source.Row, idx, cutoff int) Outcome {
	var out Outcome
	var year *int
	if in.YearField != "" {
		y, ok := row.Year(in.YearField)
		switch {
		case ok && y >= cutoff:
			return Outcome{Verdict: DroppedYear}
		case ok:
			year = model.YearPtr(y)
		case in.YearPolicy == Strict:
			return Outcome{Verdict: DroppedYear, YearUnparsed: true}
		default:
			out.YearUnparsed = true
		}
	}

	text := row.String(in.TextField)
	if in.Stripper != nil {
		text = in.Stripper.Strip(text)
	}

	name := in.Source.Name()
	id := ""
	if in.IDField != "" {
		id = row.String(in.IDField)
	}
	if id == "" {
		id = string(name) + ":" + strconv.Itoa(idx)
	}
	title := ""
	if in.TitleField != "" {
		title = row.String(in.TitleField)
	}

	out.Record = model.Record{
		Text:            text,
		PublicationYear: year,
		Identifier:      id,
		Source:          name,
		Title:           title,
	}
	if anachronism.IsModern(text) {
		out.Verdict = Rejected
	}
	return out
}

// Options configures Assemble.
type Options struct {
	YearCutoff int // 0 = DefaultYearCutoff
	Seed       uint64
	Parallel   parallel.Options
}

// Result is the assembled corpus plus the anachronism rejections kept for audit.
type Result struct {
	Records  []model.Record
	Rejected []model.Record
	Counts   []model.StageCounts
}

type indexed struct {
	idx int
	row source.Row
}

// Assemble processes each source in order, concatenates the survivors in
// source order and shuffles them with a PCG seeded from opts.Seed. The same
// inputs and seed always produce the same order. A source with no survivors
// is not an error.
func Assemble(ctx context.Context, inputs []Input, opts Options) (*Result, error) {
	cutoff := opts.YearCutoff
	if cutoff == 0 {
		cutoff = DefaultYearCutoff
	}
	log := zap.L().With(zap.String("component", "assemble"))

	res := &Result{}
	for _, in := range inputs {
		name := in.Source.Name()
		rows, err := source.Collect(ctx, in.Source)
		if err != nil {
			return nil, eris.Wrapf(err, "assemble: read source %s", name)
		}

		items := make([]indexed, len(rows))
		for i, r := range rows {
			items[i] = indexed{idx: i, row: r}
		}

		outcomes, err := parallel.Map(ctx, items, opts.Parallel, func(_ context.Context, it indexed) (Outcome, bool, error) {
			return in.Classify(it.row, it.idx, cutoff), true, nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "assemble: filter source %s", name)
		}

		counts := model.StageCounts{Source: name, PreFilter: len(rows)}
		for _, o := range outcomes {
			if o.YearUnparsed {
				counts.YearUnparsed++
			}
			switch o.Verdict {
			case Kept:
				counts.PostMetadata++
				counts.PostRegex++
				res.Records = append(res.Records, o.Record)
			case Rejected:
				counts.PostMetadata++
				counts.RegexRejected++
				res.Rejected = append(res.Rejected, o.Record)
			}
		}
		res.Counts = append(res.Counts, counts)

		log.Info("source filtered",
			zap.String("source", string(name)),
			zap.Int("pre_filter", counts.PreFilter),
			zap.Int("post_metadata", counts.PostMetadata),
			zap.Int("post_regex", counts.PostRegex),
			zap.Int("regex_removed", counts.RegexRejected),
			zap.Int("year_unparsed", counts.YearUnparsed),
		)
		if counts.PostRegex == 0 {
			log.Warn("source contributed no records", zap.String("source", string(name)))
		}
	}

	Shuffle(res.Records, opts.Seed)

	if len(res.Records) == 0 {
		log.Warn("assembled corpus is empty")
	}
	log.Info("corpus assembled",
		zap.Int("sources", len(inputs)),
		zap.Int("records", len(res.Records)),
		zap.Int("rejected", len(res.Rejected)),
	)
	return res, nil
}

// Shuffle permutes records in place with a PCG seeded from seed.
func Shuffle(records []model.Record, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
