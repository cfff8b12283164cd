// Package airtable provides an Airtable implementation of the recordstore.Client interface.
//
// Data calls use /v0/{base}/{table}, schema calls use the metadata API at
// /v0/meta/bases/{base}/tables. Store errors of the form
// {"error":{"type":..., "message":...}} are surfaced in the error details.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/recordstore"
)

// Client implements recordstore.Client over the Airtable REST API.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

var _ recordstore.Client = (*Client)(nil)

// New creates a new Airtable client.
func New(cfg Config, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("recordstore.airtable"),
	}
}

// GetRecord implements recordstore.Client.
func (c *Client) GetRecord(ctx context.Context, table, id string) (*recordstore.Record, error) {
	var rec recordstore.Record
	err := c.do(ctx, http.MethodGet, c.recordPath(table, id), nil, nil, &rec)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"table": table, "record_id": id}))
	}
	return &rec, nil
}

// PatchRecord implements recordstore.Client.
func (c *Client) PatchRecord(
	ctx context.Context,
	table, id string,
	fields map[string]any,
) (*recordstore.Record, error) {
	body := map[string]any{
		"records":  []map[string]any{{"id": id, "fields": fields}},
		"typecast": true,
	}

	var resp recordsResponse
	err := c.do(ctx, http.MethodPatch, c.tablePath(table), nil, body, &resp)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"table": table, "record_id": id}))
	}
	if len(resp.Records) == 0 {
		return nil, errx.New(
			"record store returned no records for patch",
			errx.WithCode(docerr.CodeUpstream),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"table": table, "record_id": id}),
		)
	}
	return &resp.Records[0], nil
}

// CreateRecord implements recordstore.Client.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) (*recordstore.Record, error) {
	body := map[string]any{"fields": fields, "typecast": true}

	var rec recordstore.Record
	err := c.do(ctx, http.MethodPost, c.tablePath(table), nil, body, &rec)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"table": table}))
	}
	return &rec, nil
}

// DeleteRecord implements recordstore.Client.
func (c *Client) DeleteRecord(ctx context.Context, table, id string) error {
	err := c.do(ctx, http.MethodDelete, c.recordPath(table, id), nil, nil, nil)
	return errx.Wrap(err, errx.WithDetails(errx.D{"table": table, "record_id": id}))
}

// FindRecords implements recordstore.Client. Only the first page is read,
// callers bound the result with MaxRecords.
func (c *Client) FindRecords(
	ctx context.Context,
	table string,
	opts recordstore.FindOptions,
) ([]recordstore.Record, error) {
	q := url.Values{}
	if opts.Formula != "" {
		q.Set("filterByFormula", opts.Formula)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}

	var resp recordsResponse
	err := c.do(ctx, http.MethodGet, c.tablePath(table), q, nil, &resp)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"table": table, "formula": opts.Formula}))
	}
	return resp.Records, nil
}

// ListTables implements recordstore.Client.
func (c *Client) ListTables(ctx context.Context) ([]recordstore.Table, error) {
	var resp struct {
		Tables []recordstore.Table `json:"tables"`
	}
	err := c.do(ctx, http.MethodGet, c.metaPath(), nil, nil, &resp)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return resp.Tables, nil
}

// PatchFieldSchema implements recordstore.Client.
func (c *Client) PatchFieldSchema(ctx context.Context, tableID string, def recordstore.FieldDefinition) error {
	body := map[string]any{"fields": []recordstore.FieldDefinition{def}}

	err := c.do(ctx, http.MethodPatch, c.metaPath()+"/"+url.PathEscape(tableID), nil, body, nil)
	return errx.Wrap(err, errx.WithDetails(errx.D{"table_id": tableID, "field_id": def.ID}))
}

type recordsResponse struct {
	Records []recordstore.Record `json:"records"`
}

type storeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) tablePath(table string) string {
	return fmt.Sprintf("/v0/%s/%s", url.PathEscape(c.cfg.BaseID), url.PathEscape(table))
}

func (c *Client) recordPath(table, id string) string {
	return c.tablePath(table) + "/" + url.PathEscape(id)
}

func (c *Client) metaPath() string {
	return fmt.Sprintf("/v0/meta/bases/%s/tables", url.PathEscape(c.cfg.BaseID))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errx.Wrap(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errx.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errx.Wrap(
			err,
			errx.WithCode(docerr.CodeUpstream),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"method": method, "path": path}),
		)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errx.Wrap(err, errx.WithCode(docerr.CodeUpstream), errx.WithType(errx.T_Internal))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.With("http_method", method).With("http_path", path).With("http_status", resp.StatusCode).
			Debug("record store returned an error response")
		return statusError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errx.Wrap(
			err,
			errx.WithCode(docerr.CodeUpstream),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"method": method, "path": path}),
		)
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy. The store's own
// message is kept verbatim.
func statusError(method, path string, status int, body []byte) error {
	var se storeError
	_ = json.Unmarshal(body, &se)

	msg := se.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	details := errx.D{
		"method":           method,
		"path":             path,
		"http_status":      status,
		"store_error_type": se.Error.Type,
		"store_message":    se.Error.Message,
	}

	switch status {
	case http.StatusNotFound:
		return docerr.NotFound("record store: "+msg, docerr.CodeRecordNotFound, details)
	case http.StatusUnprocessableEntity:
		return errx.New(
			"record store rejected the request: "+msg,
			errx.WithCode(docerr.CodeValidationRejected),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(details),
		)
	default:
		return errx.New(
			"record store request failed: "+msg,
			errx.WithCode(docerr.CodeUpstream),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(details),
		)
	}
}
