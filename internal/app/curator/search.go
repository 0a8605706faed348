package curator

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap" // Logging.

	"github.com/mintel/elasticsearch-curator/internal/pkg/cmd"
	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch"
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"
)

// SearchFlags holds the flags of the search command.
type SearchFlags struct {
	elasticsearch.SearchRequest

	// Indent the JSON response.
	Pretty bool
}

// NewSearchFlags returns a new SearchFlags.
func NewSearchFlags(c cmd.Flagger) *SearchFlags {
	var f SearchFlags

	c.Flag("index", "Index to search. May be repeated. Default: all indices.").
		Short('i').
		StringsVar(&f.Indices)

	c.Flag("query", "Lucene query string, e.g. 'status:500 AND host:web*'.").
		Short('q').
		StringVar(&f.Query)

	c.Flag("df", "Default field of --query.").
		StringVar(&f.DefaultField)

	c.Flag("default-operator", "Default operator of --query.").
		EnumVar(&f.DefaultOperator, "AND", "OR", "and", "or")

	c.Flag("from", "Offset of the first hit.").
		IntVar(&f.From)

	c.Flag("size", "Number of hits to return.").
		IntVar(&f.Size)

	c.Flag("body", "Query DSL request body, as JSON. Overrides the other search flags but --index.").
		StringVar(&f.Body)

	c.Flag("pretty", "Indent the JSON response.").
		BoolVar(&f.Pretty)

	return &f
}

// runSearch prints the response of the search set by app.search.
// It returns ExitOK if anything was found, ExitFailure if nothing was,
// and ExitUsage on error.
func (app *App) runSearch(ctx context.Context, q *elasticsearch.Query) int {
	logger := ctxlog.L(ctx).Named("App.search")

	resp, err := q.Search(ctx, app.search.SearchRequest)
	if err != nil {
		logger.Error("error searching", zap.Error(err))
		return ExitUsage
	}

	var out []byte
	if app.search.Pretty {
		out, err = json.MarshalIndent(resp, "", "  ")
	} else {
		out, err = json.Marshal(resp)
	}
	if err != nil {
		logger.Error("error encoding search response", zap.Error(err))
		return ExitUsage
	}
	fmt.Fprintln(app.out, string(out))

	if resp.TotalHits() == 0 {
		logger.Info("no hits")
		return ExitFailure
	}
	return ExitOK
}
