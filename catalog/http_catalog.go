package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront-service/models"
)

// productDTO accepts both the public and internal product-service shapes.
type productDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Images      []string        `json:"images"`
}

func (d productDTO) toModel() models.Product {
	title := d.Title
	if title == "" {
		title = d.Name
	}
	image := d.ImageURL
	if image == "" && len(d.Images) > 0 {
		image = d.Images[0]
	}
	return models.Product{
		ID:          d.ID,
		Title:       title,
		Price:       d.Price,
		Description: d.Description,
		ImageURL:    image,
	}
}

type listResponse struct {
	Products []productDTO `json:"products"`
	Meta     struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

// HTTPCatalog talks to the product service's REST API.
type HTTPCatalog struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPCatalog(baseURL string, timeout time.Duration) *HTTPCatalog {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCatalog{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var dto productDTO
	found, err := c.get(ctx, "/products/"+id.String(), &dto)
	if err != nil || !found {
		return nil, err
	}
	p := dto.toModel()
	return &p, nil
}

func (c *HTTPCatalog) List(ctx context.Context, page, pageSize int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(NormalizePage(page)))
	q.Set("perPage", strconv.Itoa(NormalizePageSize(pageSize)))

	var resp listResponse
	if _, err := c.get(ctx, "/products?"+q.Encode(), &resp); err != nil {
		return Page{}, err
	}

	items := make([]models.Product, 0, len(resp.Products))
	for _, d := range resp.Products {
		items = append(items, d.toModel())
	}
	return Page{Items: items, TotalCount: resp.Meta.Total}, nil
}

// get decodes a 200 response into out. A 404 reports found=false.
func (c *HTTPCatalog) get(ctx context.Context, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("product service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode product service response: %w", err)
	}
	return true, nil
}
