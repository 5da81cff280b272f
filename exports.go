package client

import (
	"context"
	"net/url"
	"strconv"
)

const exportsPath = "exports"

func exportPath(id string) string {
	return exportsPath + "/" + url.PathEscape(id)
}

// call runs spec with the per-call options and decodes the reply.
func (c *Client) call(ctx context.Context, spec RequestSpec, opts []CallOption) (*Reply, error) {
	res, err := c.Do(ctx, spec.with(opts))
	if err != nil {
		return nil, err
	}

	return newReply(res), nil
}

// ListExport lists exports matching filters. A nil or empty filter set sends
// no query string.
func (c *Client) ListExport(ctx context.Context, filters *Params, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "listExport",
		Method:    MethodGet,
		Path:      withQuery(exportsPath, filters),
	}, opts)
}

// CreateExport creates an export from its definition.
func (c *Client) CreateExport(ctx context.Context, export *Params, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "createExport",
		Method:    MethodPost,
		Path:      exportsPath,
		Body:      export,
	}, opts)
}

func (c *Client) ListExportTrendingBalance(ctx context.Context, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "listExportTrendingBalance",
		Method:    MethodGet,
		Path:      exportsPath + "/trending-balance",
	}, opts)
}

// GetExport fetches one export, optionally with its generated files.
func (c *Client) GetExport(ctx context.Context, id string, withExportFiles bool, opts ...CallOption) (*Reply, error) {
	query := NewParams().Set("withExportFiles", strconv.FormatBool(withExportFiles))

	return c.call(ctx, RequestSpec{
		Operation: "getExport",
		Method:    MethodGet,
		Path:      withQuery(exportPath(id), query),
	}, opts)
}

func (c *Client) DeleteExport(ctx context.Context, id string, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "deleteExport",
		Method:    MethodDelete,
		Path:      exportPath(id),
	}, opts)
}

// ReplaceExport overwrites an export definition.
func (c *Client) ReplaceExport(ctx context.Context, id string, export *Params, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "replaceExport",
		Method:    MethodPut,
		Path:      exportPath(id),
		Body:      export,
	}, opts)
}
