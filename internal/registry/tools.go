package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
	"github.com/vinodismyname/fuelprice/internal/datasets"
	"github.com/vinodismyname/fuelprice/internal/export"
	"github.com/vinodismyname/fuelprice/internal/runtime"
	"github.com/vinodismyname/fuelprice/pkg/mcperr"
	"github.com/vinodismyname/fuelprice/pkg/pagination"
	"github.com/vinodismyname/fuelprice/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// LoadSurveyInput defines parameters for load_survey.
type LoadSurveyInput struct {
	Path string `json:"path" validate:"required,csvpath" jsonschema_description:"Path to a weekly municipal survey CSV inside an allowed directory"`
}

// LoadSurveyOutput documents the response fields for load_survey.
type LoadSurveyOutput struct {
	DatasetID       string `json:"dataset_id" jsonschema_description:"Server-assigned dataset handle ID"`
	Path            string `json:"path" jsonschema_description:"Canonical path that was loaded"`
	Rows            int    `json:"rows" jsonschema_description:"Normalized survey rows"`
	DefaultPageSize int    `json:"defaultPageSize" jsonschema_description:"Rows per page when page_size is omitted"`
	MaxPageSize     int    `json:"maxPageSize" jsonschema_description:"Upper bound for page_size"`
}

// CloseSurveyInput defines parameters for close_survey.
type CloseSurveyInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID to close"`
}

// CloseSurveyOutput documents the response of close_survey.
type CloseSurveyOutput struct {
	Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
}

// MonthlyAverageInput defines parameters for monthly_city_average.
type MonthlyAverageInput struct {
	DatasetID string `json:"dataset_id,omitempty" validate:"required_without=Cursor" jsonschema_description:"Dataset handle ID (omit when resuming with cursor)"`
	State     string `json:"state,omitempty" jsonschema_description:"Only rows of this state"`
	YearMonth string `json:"year_month,omitempty" validate:"omitempty,yearmonth" jsonschema_description:"Only this YYYYMM bucket"`
	Weighted  bool   `json:"weighted,omitempty" jsonschema_description:"Weight weekly averages by surveyed stations"`
	PageSize  int    `json:"page_size,omitempty" validate:"omitempty,min=1" jsonschema_description:"Rows per page (bounded)"`
	Cursor    string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page; overrides other inputs"`
}

// PageMeta captures paging metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// MonthlyAverageOutput holds one page of monthly city averages. Exactly one
// of Averages and Weighted is populated.
type MonthlyAverageOutput struct {
	DatasetID string                          `json:"dataset_id"`
	Averages  []aggregate.MonthlyCityAverage  `json:"averages,omitempty"`
	Weighted  []aggregate.MonthlyCityWeighted `json:"weighted,omitempty"`
	Meta      PageMeta                        `json:"meta"`
}

// RegionalAverageInput defines parameters for regional_average.
type RegionalAverageInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	Level     string `json:"level" validate:"required,oneof=state region" jsonschema_description:"Aggregation level: state or region"`
	Product   string `json:"product,omitempty" jsonschema_description:"Only this product"`
}

// RegionalAverageOutput lists state or region averages.
type RegionalAverageOutput struct {
	DatasetID string                    `json:"dataset_id"`
	Level     string                    `json:"level"`
	States    []aggregate.StateAverage  `json:"states,omitempty"`
	Regions   []aggregate.RegionAverage `json:"regions,omitempty"`
}

// DispersionInput defines parameters for monthly_dispersion.
type DispersionInput struct {
	DatasetID string `json:"dataset_id,omitempty" validate:"required_without=Cursor" jsonschema_description:"Dataset handle ID (omit when resuming with cursor)"`
	State     string `json:"state,omitempty" jsonschema_description:"Only rows of this state"`
	YearMonth string `json:"year_month,omitempty" validate:"omitempty,yearmonth" jsonschema_description:"Only this YYYYMM bucket"`
	PageSize  int    `json:"page_size,omitempty" validate:"omitempty,min=1" jsonschema_description:"Rows per page (bounded)"`
	Cursor    string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page; overrides other inputs"`
}

// DispersionRow joins the variance and range of one city-month group.
// Variances are null when the group has fewer than two weeks.
type DispersionRow struct {
	aggregate.CityMonthKey
	Weeks        int      `json:"weeks"`
	MinVariance  *float64 `json:"min_variance"`
	MaxVariance  *float64 `json:"max_variance"`
	MinPriceLow  float64  `json:"min_price_low"`
	MinPriceHigh float64  `json:"min_price_high"`
	MinRange     float64  `json:"min_range"`
	MaxPriceLow  float64  `json:"max_price_low"`
	MaxPriceHigh float64  `json:"max_price_high"`
	MaxRange     float64  `json:"max_range"`
}

// DispersionOutput holds one page of dispersion rows.
type DispersionOutput struct {
	DatasetID string          `json:"dataset_id"`
	Rows      []DispersionRow `json:"rows"`
	Meta      PageMeta        `json:"meta"`
}

// TopSpreadInput defines parameters for top_spread.
type TopSpreadInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	TopN      int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100" jsonschema_description:"Cities per product (default 5)"`
	Product   string `json:"product,omitempty" jsonschema_description:"Only this product"`
}

// TopSpreadOutput lists the ranking of each product.
type TopSpreadOutput struct {
	DatasetID string                     `json:"dataset_id"`
	TopN      int                        `json:"top_n"`
	Products  []aggregate.ProductRanking `json:"products"`
}

// ExportInput defines parameters for export_workbook.
type ExportInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	Output    string `json:"output" validate:"required,exportpath" jsonschema_description:"Target file: .xlsx workbook, or .db/.sqlite database"`
	TopN      int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100" jsonschema_description:"Cities per product in the spread ranking"`
	Weighted  bool   `json:"weighted,omitempty" jsonschema_description:"Include station-weighted monthly averages"`
}

// ExportOutput documents the written file.
type ExportOutput struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// --- Registration ---

// WritePathValidator checks export targets.
type WritePathValidator interface {
	ValidateWritePath(path string) (string, error)
}

// Deps are the collaborators of the survey tools.
type Deps struct {
	Datasets    *datasets.Manager
	Writes      WritePathValidator
	AllowWrites bool
	Limits      runtime.Limits
	Observe     aggregate.PassObserver
}

type surveyTools struct {
	Deps
}

// RegisterSurveyTools defines every survey tool on s and records it in reg.
func RegisterSurveyTools(s *server.MCPServer, reg *Registry, deps Deps) {
	t := &surveyTools{Deps: deps}
	add := func(tool mcp.Tool, h server.ToolHandlerFunc) {
		s.AddTool(tool, h)
		reg.Register(tool)
	}

	add(mcp.NewTool(
		"load_survey",
		mcp.WithDescription("Load and normalize a weekly municipal fuel-price survey CSV (DD/MM/YYYY dates, comma decimals). Returns a dataset_id used by every other tool. Fails on the first malformed field with FORMAT_ERROR or PERIOD_INVALID naming the line and column."),
		mcp.WithInputSchema[LoadSurveyInput](),
		mcp.WithOutputSchema[LoadSurveyOutput](),
	), mcp.NewTypedToolHandler(t.loadSurvey))

	add(mcp.NewTool(
		"close_survey",
		mcp.WithDescription("Release a loaded dataset. Idle datasets are also evicted automatically."),
		mcp.WithInputSchema[CloseSurveyInput](),
		mcp.WithOutputSchema[CloseSurveyOutput](),
	), mcp.NewTypedToolHandler(t.closeSurvey))

	add(mcp.NewTool(
		"monthly_city_average",
		mcp.WithDescription("Average resale price per (state, municipality, YYYYMM, product), sorted by key. Weeks are bucketed into the month holding most of their days. Set weighted=true to weight weeks by surveyed stations. Paged; pass meta.nextCursor back as cursor to continue."),
		mcp.WithInputSchema[MonthlyAverageInput](),
		mcp.WithOutputSchema[MonthlyAverageOutput](),
	), mcp.NewTypedToolHandler(t.monthlyCityAverage))

	add(mcp.NewTool(
		"regional_average",
		mcp.WithDescription("Average resale price per (state, product) or (region, product) over all weeks."),
		mcp.WithInputSchema[RegionalAverageInput](),
		mcp.WithOutputSchema[RegionalAverageOutput](),
	), mcp.NewTypedToolHandler(t.regionalAverage))

	add(mcp.NewTool(
		"monthly_dispersion",
		mcp.WithDescription("Per (state, municipality, YYYYMM, product): sample variance (N-1, null below two weeks) and absolute range of the weekly minimum and maximum price series. Paged like monthly_city_average."),
		mcp.WithInputSchema[DispersionInput](),
		mcp.WithOutputSchema[DispersionOutput](),
	), mcp.NewTypedToolHandler(t.monthlyDispersion))

	add(mcp.NewTool(
		"top_spread",
		mcp.WithDescription("For each product, the municipalities with the largest spread between their highest weekly maximum and lowest weekly minimum price over the whole file."),
		mcp.WithInputSchema[TopSpreadInput](),
		mcp.WithOutputSchema[TopSpreadOutput](),
	), mcp.NewTypedToolHandler(t.topSpread))

	add(mcp.NewTool(
		"export_workbook",
		mcp.WithDescription("Write every result set of a dataset to an .xlsx workbook (one sheet each) or a sqlite database (one table each). Requires FUELPRICE_ENABLE_WRITES."),
		mcp.WithInputSchema[ExportInput](),
		mcp.WithOutputSchema[ExportOutput](),
	), mcp.NewTypedToolHandler(t.exportWorkbook))
}

// --- Handlers ---

func (t *surveyTools) loadSurvey(ctx context.Context, _ mcp.CallToolRequest, in LoadSurveyInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	d, err := t.Datasets.Open(ctx, in.Path)
	if err != nil {
		return mcperr.FromError(err, mcperr.OpenFailed), nil
	}
	out := LoadSurveyOutput{
		DatasetID:       d.ID,
		Path:            d.Path,
		Rows:            len(d.Rows),
		DefaultPageSize: t.Limits.DefaultPageSize,
		MaxPageSize:     t.Limits.MaxPageSize,
	}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("dataset_id=%s rows=%d", out.DatasetID, out.Rows)), nil
}

func (t *surveyTools) closeSurvey(_ context.Context, _ mcp.CallToolRequest, in CloseSurveyInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	if err := t.Datasets.CloseHandle(in.DatasetID); err != nil {
		return mcperr.FromError(err, mcperr.InvalidHandle), nil
	}
	return mcp.NewToolResultStructured(CloseSurveyOutput{Success: true}, "closed "+in.DatasetID), nil
}

func (t *surveyTools) monthlyCityAverage(ctx context.Context, _ mcp.CallToolRequest, in MonthlyAverageInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	table := pagination.TableMonthlyAverage
	if in.Weighted {
		table = pagination.TableMonthlyWeighted
	}
	q, errRes := t.query(in.Cursor, in.DatasetID, in.State, in.YearMonth, in.PageSize, table,
		pagination.TableMonthlyAverage, pagination.TableMonthlyWeighted)
	if errRes != nil {
		return errRes, nil
	}

	rep, err := t.report(ctx, q.did, 0, q.table == pagination.TableMonthlyWeighted)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}

	out := MonthlyAverageOutput{DatasetID: q.did}
	if q.table == pagination.TableMonthlyWeighted {
		rows := filterKeyed(rep.MonthlyWeighted, q, func(r aggregate.MonthlyCityWeighted) aggregate.CityMonthKey { return r.CityMonthKey })
		out.Weighted, out.Meta, err = pageOf(rows, q)
	} else {
		rows := filterKeyed(rep.MonthlyAverages, q, func(r aggregate.MonthlyCityAverage) aggregate.CityMonthKey { return r.CityMonthKey })
		out.Averages, out.Meta, err = pageOf(rows, q)
	}
	if err != nil {
		return mcperr.Wrapf(mcperr.CursorInvalid, "build next cursor: %v", err), nil
	}
	return mcp.NewToolResultStructured(out, pageSummary(out.Meta)), nil
}

func (t *surveyTools) regionalAverage(ctx context.Context, _ mcp.CallToolRequest, in RegionalAverageInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	rep, err := t.report(ctx, in.DatasetID, 0, false)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}

	out := RegionalAverageOutput{DatasetID: in.DatasetID, Level: in.Level}
	var n int
	if in.Level == "state" {
		out.States = lo.Filter(rep.StateAverages, func(r aggregate.StateAverage, _ int) bool { return matches(in.Product, r.Product) })
		n = len(out.States)
	} else {
		out.Regions = lo.Filter(rep.RegionAverages, func(r aggregate.RegionAverage, _ int) bool { return matches(in.Product, r.Product) })
		n = len(out.Regions)
	}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("level=%s rows=%d", in.Level, n)), nil
}

func (t *surveyTools) monthlyDispersion(ctx context.Context, _ mcp.CallToolRequest, in DispersionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	q, errRes := t.query(in.Cursor, in.DatasetID, in.State, in.YearMonth, in.PageSize,
		pagination.TableDispersion, pagination.TableDispersion)
	if errRes != nil {
		return errRes, nil
	}
	rep, err := t.report(ctx, q.did, 0, false)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}

	rows, err := joinDispersion(rep.Variances, rep.Ranges)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}
	rows = filterKeyed(rows, q, func(r DispersionRow) aggregate.CityMonthKey { return r.CityMonthKey })

	out := DispersionOutput{DatasetID: q.did}
	out.Rows, out.Meta, err = pageOf(rows, q)
	if err != nil {
		return mcperr.Wrapf(mcperr.CursorInvalid, "build next cursor: %v", err), nil
	}
	return mcp.NewToolResultStructured(out, pageSummary(out.Meta)), nil
}

func (t *surveyTools) topSpread(ctx context.Context, _ mcp.CallToolRequest, in TopSpreadInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	rep, err := t.report(ctx, in.DatasetID, in.TopN, false)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}

	out := TopSpreadOutput{DatasetID: in.DatasetID, TopN: rep.TopN, Products: []aggregate.ProductRanking{}}
	lines := []string{fmt.Sprintf("top_n=%d", rep.TopN)}
	for _, pr := range rep.TopSpreads {
		if !matches(in.Product, pr.Product) {
			continue
		}
		out.Products = append(out.Products, pr)
		if len(pr.Cities) > 0 {
			c := pr.Cities[0]
			lines = append(lines, fmt.Sprintf("- %s: %s/%s spread=%.3f", pr.Product, c.State, c.Municipality, c.Spread))
		}
	}
	res := mcp.NewToolResultStructured(out, lines[0])
	res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
	return res, nil
}

func (t *surveyTools) exportWorkbook(ctx context.Context, _ mcp.CallToolRequest, in ExportInput) (*mcp.CallToolResult, error) {
	if !t.AllowWrites {
		return mcperr.New(mcperr.PermissionDenied, "writes are disabled; set FUELPRICE_ENABLE_WRITES=true"), nil
	}
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	path := in.Output
	if t.Writes != nil {
		p, err := t.Writes.ValidateWritePath(in.Output)
		if err != nil {
			return mcperr.FromError(err, mcperr.PermissionDenied), nil
		}
		path = p
	}
	rep, err := t.report(ctx, in.DatasetID, in.TopN, in.Weighted)
	if err != nil {
		return mcperr.FromError(err, mcperr.AnalysisFailed), nil
	}

	format := "xlsx"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".db" || ext == ".sqlite" {
		format = "sqlite"
		err = export.WriteSQLite(ctx, path, rep)
	} else {
		err = export.WriteXLSX(path, rep)
	}
	if err != nil {
		return mcperr.FromError(err, mcperr.WriteFailed), nil
	}
	zerolog.Ctx(ctx).Info().Str("dataset_id", in.DatasetID).Str("path", path).Str("format", format).Msg("export written")
	return mcp.NewToolResultStructured(ExportOutput{Path: path, Format: format}, "wrote "+path), nil
}

// --- Helpers ---

func (t *surveyTools) report(ctx context.Context, id string, topN int, weighted bool) (*aggregate.Report, error) {
	return t.Datasets.Report(ctx, id, aggregate.Options{
		TopN:        topN,
		MaxParallel: t.Limits.MaxParallelPasses,
		Weighted:    weighted,
		Observe:     t.Observe,
	})
}

// pageQuery is a resolved page request, from inputs or from a cursor.
type pageQuery struct {
	did       string
	table     pagination.Table
	state     string
	yearMonth string
	off       int
	ps        int
}

// query resolves a page request. A cursor wins over the explicit inputs but
// must belong to one of the allowed tables and to datasetID when given.
func (t *surveyTools) query(cursor, datasetID, state, yearMonth string, pageSize int, table pagination.Table, allowed ...pagination.Table) (pageQuery, *mcp.CallToolResult) {
	if strings.TrimSpace(cursor) == "" {
		return pageQuery{
			did:       datasetID,
			table:     table,
			state:     state,
			yearMonth: yearMonth,
			ps:        t.Limits.PageSize(pageSize),
		}, nil
	}

	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return pageQuery{}, mcperr.New(mcperr.CursorInvalid, err.Error())
	}
	if datasetID != "" && datasetID != c.Did {
		return pageQuery{}, mcperr.New(mcperr.CursorInvalid, "cursor belongs to another dataset")
	}
	ok := false
	for _, a := range allowed {
		ok = ok || c.T == a
	}
	if !ok {
		return pageQuery{}, mcperr.Wrapf(mcperr.CursorInvalid, "cursor pages %s", c.T)
	}
	return pageQuery{
		did:       c.Did,
		table:     c.T,
		state:     c.St,
		yearMonth: c.Ym,
		off:       c.Off,
		ps:        t.Limits.PageSize(c.Ps),
	}, nil
}

func filterKeyed[T any](rows []T, q pageQuery, key func(T) aggregate.CityMonthKey) []T {
	if q.state == "" && q.yearMonth == "" {
		return rows
	}
	return lo.Filter(rows, func(r T, _ int) bool {
		k := key(r)
		return matches(q.state, k.State) && (q.yearMonth == "" || q.yearMonth == k.YearMonth)
	})
}

func pageOf[T any](rows []T, q pageQuery) ([]T, PageMeta, error) {
	start, end, next := pagination.Window(len(rows), q.off, q.ps)
	page := rows[start:end]
	if page == nil {
		page = []T{}
	}
	meta := PageMeta{Total: len(rows), Returned: len(page), Truncated: next >= 0}
	if next >= 0 {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			V:   1,
			Did: q.did,
			T:   q.table,
			Off: next,
			Ps:  q.ps,
			Iat: time.Now().Unix(),
			St:  q.state,
			Ym:  q.yearMonth,
		})
		if err != nil {
			return nil, PageMeta{}, err
		}
		meta.NextCursor = token
	}
	return page, meta, nil
}

func joinDispersion(vars []aggregate.MonthlyVariance, ranges []aggregate.MonthlyRange) ([]DispersionRow, error) {
	if len(vars) != len(ranges) {
		return nil, fmt.Errorf("dispersion: %d variance rows vs %d range rows", len(vars), len(ranges))
	}
	out := make([]DispersionRow, len(vars))
	for i, v := range vars {
		r := ranges[i]
		if v.CityMonthKey != r.CityMonthKey {
			return nil, fmt.Errorf("dispersion: row %d keys differ", i)
		}
		out[i] = DispersionRow{
			CityMonthKey: v.CityMonthKey,
			Weeks:        v.Weeks,
			MinVariance:  v.MinVariance,
			MaxVariance:  v.MaxVariance,
			MinPriceLow:  r.MinPriceLow,
			MinPriceHigh: r.MinPriceHigh,
			MinRange:     r.MinRange,
			MaxPriceLow:  r.MaxPriceLow,
			MaxPriceHigh: r.MaxPriceHigh,
			MaxRange:     r.MaxRange,
		}
	}
	return out, nil
}

// matches is a case-insensitive equality that treats an empty filter as
// matching everything.
func matches(filter, value string) bool {
	return filter == "" || strings.EqualFold(strings.TrimSpace(filter), value)
}

func pageSummary(m PageMeta) string {
	return fmt.Sprintf("total=%d returned=%d truncated=%v", m.Total, m.Returned, m.Truncated)
}
