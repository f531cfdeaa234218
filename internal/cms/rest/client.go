// Package rest implements the cms API contracts over a JSON management
// API using resty.
package rest

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"github.com/vk/blocklift/internal/cms"
)

// Client talks to the management API. It implements cms.API.
type Client struct {
	http *resty.Client
}

// New returns a client for the given endpoint. Callers own Close.
func New(baseURL, token string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// --- SchemaAPI ---

func (c *Client) ItemType(ctx context.Context, id string) (*cms.ItemType, error) {
	var out itemTypeEnvelope
	if err := c.get(ctx, "/item-types/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) ItemTypes(ctx context.Context) ([]*cms.ItemType, error) {
	var out itemTypeListEnvelope
	if err := c.get(ctx, "/item-types", nil, &out); err != nil {
		return nil, err
	}
	result := make([]*cms.ItemType, 0, len(out.Data))
	for _, p := range out.Data {
		result = append(result, p.toDomain())
	}
	return result, nil
}

func (c *Client) CreateItemType(ctx context.Context, it *cms.ItemType) (*cms.ItemType, error) {
	var out itemTypeEnvelope
	if err := c.post(ctx, "/item-types", itemTypeEnvelope{Data: toItemTypePayload(it)}, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) UpdateItemType(ctx context.Context, it *cms.ItemType) (*cms.ItemType, error) {
	var out itemTypeEnvelope
	if err := c.put(ctx, "/item-types/"+it.ID, itemTypeEnvelope{Data: toItemTypePayload(it)}, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) DeleteItemType(ctx context.Context, id string) error {
	return c.delete(ctx, "/item-types/"+id)
}

func (c *Client) Fields(ctx context.Context, itemTypeID string) ([]*cms.Field, error) {
	var out fieldListEnvelope
	if err := c.get(ctx, "/item-types/"+itemTypeID+"/fields", nil, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) FieldsReferencing(ctx context.Context, itemTypeID string) ([]*cms.Field, error) {
	var out fieldListEnvelope
	params := map[string]string{"filter[referencing]": itemTypeID}
	if err := c.get(ctx, "/fields", params, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateField(ctx context.Context, itemTypeID string, f *cms.Field) (*cms.Field, error) {
	var out fieldEnvelope
	if err := c.post(ctx, "/item-types/"+itemTypeID+"/fields", fieldEnvelope{Data: toFieldPayload(f)}, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) UpdateField(ctx context.Context, f *cms.Field) (*cms.Field, error) {
	var out fieldEnvelope
	if err := c.put(ctx, "/fields/"+f.ID, fieldEnvelope{Data: toFieldPayload(f)}, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) DeleteField(ctx context.Context, id string) error {
	return c.delete(ctx, "/fields/"+id)
}

// --- ContentAPI ---

func (c *Client) Records(ctx context.Context, itemTypeID string, offset, limit int) ([]*cms.Record, int, error) {
	var out recordListEnvelope
	params := map[string]string{
		"filter[type]": itemTypeID,
		"page[offset]": fmt.Sprintf("%d", offset),
		"page[limit]":  fmt.Sprintf("%d", limit),
		"nested":       "true",
	}
	if err := c.get(ctx, "/items", params, &out); err != nil {
		return nil, 0, err
	}
	records := make([]*cms.Record, 0, len(out.Data))
	for _, p := range out.Data {
		records = append(records, p.toDomain())
	}
	return records, out.Meta.TotalCount, nil
}

func (c *Client) CreateRecord(ctx context.Context, itemTypeID string, fields map[string]any) (*cms.Record, error) {
	var out recordEnvelope
	body := recordEnvelope{Data: recordPayload{ItemType: itemTypeID, Fields: fields}}
	if err := c.post(ctx, "/items", body, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) UpdateRecord(ctx context.Context, id string, fields map[string]any) (*cms.Record, error) {
	var out recordEnvelope
	if err := c.put(ctx, "/items/"+id, recordEnvelope{Data: recordPayload{Fields: fields}}, &out); err != nil {
		return nil, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) PublishRecord(ctx context.Context, id string) error {
	res, err := c.http.R().SetContext(ctx).Put("/items/" + id + "/publish")
	if err != nil {
		return fmt.Errorf("PUT /items/%s/publish: %w", id, err)
	}
	return checkStatus(res)
}

// --- SiteAPI ---

func (c *Client) Locales(ctx context.Context) ([]string, error) {
	var out siteEnvelope
	if err := c.get(ctx, "/site", nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Locales, nil
}

func (c *Client) MenuItems(ctx context.Context) ([]*cms.MenuItem, error) {
	var out menuItemListEnvelope
	if err := c.get(ctx, "/menu-items", nil, &out); err != nil {
		return nil, err
	}
	items := make([]*cms.MenuItem, 0, len(out.Data))
	for _, p := range out.Data {
		items = append(items, p.toDomain())
	}
	return items, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, m *cms.MenuItem) error {
	body := menuItemEnvelope{Data: menuItemPayload{ID: m.ID, Label: m.Label, ItemTypeID: m.ItemTypeID}}
	res, err := c.http.R().SetContext(ctx).SetBody(body).Put("/menu-items/" + m.ID)
	if err != nil {
		return fmt.Errorf("PUT /menu-items/%s: %w", m.ID, err)
	}
	return checkStatus(res)
}

// --- plumbing ---

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out)
	if params != nil {
		req.SetQueryParams(params)
	}
	res, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return checkStatus(res)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	res, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(out).Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return checkStatus(res)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	res, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(out).Put(path)
	if err != nil {
		return fmt.Errorf("PUT %s: %w", path, err)
	}
	return checkStatus(res)
}

func (c *Client) delete(ctx context.Context, path string) error {
	res, err := c.http.R().SetContext(ctx).Delete(path)
	if err != nil {
		return fmt.Errorf("DELETE %s: %w", path, err)
	}
	return checkStatus(res)
}

func checkStatus(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("%s %s: unexpected status %d: %s",
			res.Request.Method, res.Request.URL, res.StatusCode(), res.String())
	}
	return nil
}

var _ cms.API = (*Client)(nil)
