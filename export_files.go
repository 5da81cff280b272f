package client

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

const exportFilesPath = "export-files"

func exportFilePath(id string) string {
	return exportFilesPath + "/" + url.PathEscape(id)
}

// ExportFileFilter narrows [Client.ListExportFile]. Every field is sent, empty
// ones included.
type ExportFileFilter struct {
	DateCreated     string
	Status          string
	Filename        string
	DateRegenerated string
}

func (f ExportFileFilter) params() *Params {
	return NewParams().
		Set("dateCreated", f.DateCreated).
		Set("status", f.Status).
		Set("filename", f.Filename).
		Set("dateRegenerated", f.DateRegenerated)
}

// ListExportFile lists the files generated for an export.
func (c *Client) ListExportFile(ctx context.Context, exportID string, filter ExportFileFilter, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "listExportFile",
		Method:    MethodGet,
		Path:      withQuery(exportPath(exportID)+"/files", filter.params()),
	}, opts)
}

// CreateExportFile asks the API to generate a new file for an export.
func (c *Client) CreateExportFile(ctx context.Context, exportID string, data *Params, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "createExportFile",
		Method:    MethodPost,
		Path:      exportPath(exportID) + "/files",
		Body:      data,
	}, opts)
}

// SendExportFile has the API email an export file.
func (c *Client) SendExportFile(ctx context.Context, id, hash string, opts ...CallOption) (*Reply, error) {
	return c.call(ctx, RequestSpec{
		Operation: "sendExportFile",
		Method:    MethodGet,
		Path:      withQuery(exportFilePath(id)+"/email", NewParams().Set("hash", hash)),
	}, opts)
}

// RegenerateExportFile rebuilds an export file and optionally emails it.
func (c *Client) RegenerateExportFile(ctx context.Context, id, hash string, sendByEmail bool, opts ...CallOption) (*Reply, error) {
	query := NewParams().
		Set("hash", hash).
		Set("send_by_email", strconv.FormatBool(sendByEmail))

	return c.call(ctx, RequestSpec{
		Operation: "regenerateExportFile",
		Method:    MethodGet,
		Path:      withQuery(exportFilePath(id)+"/regenerate", query),
	}, opts)
}

// DownloadExportFile writes an export file to destination. The destination
// is opened before the request is sent and receives the response body even
// when the status is not 2xx. If it cannot be opened, no request is made.
func (c *Client) DownloadExportFile(ctx context.Context, id, hash, destination string, opts ...CallOption) (*Download, error) {
	spec := RequestSpec{
		Operation:   "downloadExportFile",
		Method:      MethodDownload,
		Path:        withQuery(exportFilePath(id), NewParams().Set("hash", hash)),
		Destination: destination,
	}

	spec = spec.with(opts)

	res, err := c.Do(ctx, spec)
	if err != nil {
		return nil, err
	}

	d := &Download{Reply: *newReply(res), Path: spec.Destination}

	info, err := os.Stat(spec.Destination)
	if err != nil {
		return d, fmt.Errorf("failed to stat download destination: %w", err)
	}
	d.Size = info.Size()

	if d.Size > 0 {
		if mtype, err := mimetype.DetectFile(spec.Destination); err == nil {
			d.MIME = mtype.String()
		}
	}

	return d, nil
}
