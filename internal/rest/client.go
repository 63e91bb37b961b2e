// Package rest is the typed HTTP client for the comptes API. Every call is
// a single JSON request; success decodes the server-assigned entity,
// failure surfaces the HTTP status.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"comptes/internal/core"
)

// Client talks to one comptes server. The zero value is not usable; use
// NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Accounts, ThirdParties, Categories, SubCategories and BankOperations all
// share the one underlying client; the split keeps call sites aligned with
// the resource they touch.
func (c *Client) Accounts() AccountsClient           { return accountsClient{c} }
func (c *Client) ThirdParties() ThirdPartiesClient   { return thirdPartiesClient{c} }
func (c *Client) Categories() CategoriesClient       { return categoriesClient{c} }
func (c *Client) SubCategories() SubCategoriesClient { return subCategoriesClient{c} }
func (c *Client) BankOperations() BankOperationsClient {
	return bankOperationsClient{c}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: server returned %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type accountsClient struct{ c *Client }

func (a accountsClient) Get(ctx context.Context, id int64) (core.Account, error) {
	var out core.Account
	err := a.c.do(ctx, http.MethodGet, fmt.Sprintf("/accounts/%d", id), nil, &out)
	return out, err
}

func (a accountsClient) List(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	err := a.c.do(ctx, http.MethodGet, "/accounts", nil, &out)
	return out, err
}

func (a accountsClient) Save(ctx context.Context, acc core.Account) (core.Account, error) {
	var out core.Account
	err := a.c.do(ctx, http.MethodPost, "/accounts", acc, &out)
	return out, err
}

func (a accountsClient) Update(ctx context.Context, id int64, acc core.Account) (core.Account, error) {
	var out core.Account
	err := a.c.do(ctx, http.MethodPut, fmt.Sprintf("/accounts/%d", id), acc, &out)
	return out, err
}

type thirdPartiesClient struct{ c *Client }

func (t thirdPartiesClient) List(ctx context.Context) ([]core.ThirdParty, error) {
	var out []core.ThirdParty
	err := t.c.do(ctx, http.MethodGet, "/thirdParties", nil, &out)
	return out, err
}

func (t thirdPartiesClient) Create(ctx context.Context, tp core.ThirdParty) (core.ThirdParty, error) {
	var out core.ThirdParty
	err := t.c.do(ctx, http.MethodPost, "/thirdParties", tp, &out)
	return out, err
}

type categoriesClient struct{ c *Client }

func (cc categoriesClient) Get(ctx context.Context, id int64) (core.Category, error) {
	var out core.Category
	err := cc.c.do(ctx, http.MethodGet, fmt.Sprintf("/categories/%d", id), nil, &out)
	return out, err
}

func (cc categoriesClient) ListByType(ctx context.Context, t core.OperationType) ([]core.Category, error) {
	path := "/chargeCategories"
	if t == core.Credit {
		path = "/creditCategories"
	}
	var out []core.Category
	err := cc.c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (cc categoriesClient) Create(ctx context.Context, cat core.Category) (core.Category, error) {
	var out core.Category
	err := cc.c.do(ctx, http.MethodPost, "/categories", cat, &out)
	return out, err
}

func (cc categoriesClient) Update(ctx context.Context, id int64, cat core.Category) (core.Category, error) {
	var out core.Category
	err := cc.c.do(ctx, http.MethodPut, fmt.Sprintf("/categories/%d", id), cat, &out)
	return out, err
}

func (cc categoriesClient) ListOperations(ctx context.Context, categoryID int64) ([]core.BankOperation, error) {
	var out []core.BankOperation
	err := cc.c.do(ctx, http.MethodGet, fmt.Sprintf("/categories/%d/bankOperations", categoryID), nil, &out)
	return out, err
}

type subCategoriesClient struct{ c *Client }

func (s subCategoriesClient) Create(ctx context.Context, categoryID int64, sc core.SubCategory) (core.SubCategory, error) {
	var out core.SubCategory
	err := s.c.do(ctx, http.MethodPost,
		fmt.Sprintf("/categories/%d/subCategories", categoryID), sc, &out)
	return out, err
}

func (s subCategoriesClient) Update(ctx context.Context, categoryID, subCategoryID int64, sc core.SubCategory, move bool) (core.SubCategory, error) {
	path := fmt.Sprintf("/categories/%d/subCategories/%d", categoryID, subCategoryID)
	if move {
		path += "?" + url.Values{"move": {"true"}}.Encode()
	}
	var out core.SubCategory
	err := s.c.do(ctx, http.MethodPut, path, sc, &out)
	return out, err
}

type bankOperationsClient struct{ c *Client }

func (b bankOperationsClient) List(ctx context.Context, accountID int64) ([]core.BankOperation, error) {
	var out []core.BankOperation
	err := b.c.do(ctx, http.MethodGet, fmt.Sprintf("/accounts/%d/bankOperations", accountID), nil, &out)
	return out, err
}

func (b bankOperationsClient) Create(ctx context.Context, accountID int64, op core.BankOperation) (core.BankOperation, error) {
	var out core.BankOperation
	err := b.c.do(ctx, http.MethodPost,
		fmt.Sprintf("/accounts/%d/bankOperations", accountID), op, &out)
	return out, err
}

func (b bankOperationsClient) Update(ctx context.Context, accountID, operationID int64, op core.BankOperation) (core.BankOperation, error) {
	var out core.BankOperation
	err := b.c.do(ctx, http.MethodPut,
		fmt.Sprintf("/accounts/%d/bankOperations/%d", accountID, operationID), op, &out)
	return out, err
}
